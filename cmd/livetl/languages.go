package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/livetl"
)

func newLanguagesCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List known language codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := livetl.KnownLanguageCodes()
			if search != "" {
				codes = searchLanguages(search, codes)
				if len(codes) == 0 {
					return fmt.Errorf("no language matches %q", search)
				}
			}
			renderLanguages(cmd.OutOrStdout(), codes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy filter on code or name")
	return cmd
}

// searchLanguages ranks codes by how closely "code name" matches query.
func searchLanguages(query string, codes []string) []string {
	targets := make([]string, len(codes))
	for i, code := range codes {
		targets[i] = code + " " + livetl.GetLanguageName(code)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Sort(ranks)

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = codes[r.OriginalIndex]
	}
	return out
}

func renderLanguages(w io.Writer, codes []string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Code", "Language", "HTML lang", "Direction"})
	for _, code := range codes {
		tw.AppendRow(table.Row{code, livetl.GetLanguageName(code), livetl.ToHTMLLang(code), livetl.GetDirection(code)})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
