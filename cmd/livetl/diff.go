package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/dom"
)

func newDiffCommand(global *globalFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "diff old.html new.html",
		Short: "Show which strings changed between two versions of a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(global, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			roots := a.cfg.Engine.Roots
			oldKeys, err := scanFile(args[0], roots)
			if err != nil {
				return fmt.Errorf("reading previous version: %w", err)
			}
			newKeys, err := scanFile(args[1], roots)
			if err != nil {
				return fmt.Errorf("reading new version: %w", err)
			}

			diff := livetl.DiffKeys(oldKeys, newKeys)
			if jsonOut {
				return diffJSON(cmd.OutOrStdout(), args, diff)
			}
			printDiff(cmd.OutOrStdout(), args, diff)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the diff as JSON")
	return cmd
}

func scanFile(path string, roots []string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, err
	}
	doc, err := dom.ParseString(string(data))
	if err != nil {
		return nil, err
	}
	return livetl.ScanKeys(doc, roots...), nil
}

func diffJSON(w io.Writer, files []string, diff *livetl.KeyDiff) error {
	type diffOutput struct {
		PreviousFile string           `json:"previous_file"`
		InputFile    string           `json:"input_file"`
		Stats        livetl.DiffStats `json:"stats"`
		Added        []string         `json:"added,omitempty"`
		Removed      []string         `json:"removed,omitempty"`
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diffOutput{
		PreviousFile: filepath.Base(files[0]),
		InputFile:    filepath.Base(files[1]),
		Stats:        diff.Stats(),
		Added:        diff.Added,
		Removed:      diff.Removed,
	})
}

func printDiff(w io.Writer, files []string, diff *livetl.KeyDiff) {
	stats := diff.Stats()
	fmt.Fprintf(w, "Diff: %s vs %s\n\n", filepath.Base(files[1]), filepath.Base(files[0]))
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Unchanged: %d\n", stats.Unchanged)
	fmt.Fprintf(w, "  Added:     %d\n", stats.Added)
	fmt.Fprintf(w, "  Removed:   %d\n", stats.Removed)
	fmt.Fprintf(w, "\n")

	if !diff.HasChanges() {
		fmt.Fprintf(w, "No changes detected. Cached translations cover the new version.\n")
		return
	}

	if len(diff.Added) > 0 {
		fmt.Fprintf(w, "Added:\n")
		for _, key := range diff.Added {
			fmt.Fprintf(w, "  + %q\n", truncate(key, 50))
		}
		fmt.Fprintf(w, "\n")
	}
	if len(diff.Removed) > 0 {
		fmt.Fprintf(w, "Removed:\n")
		for _, key := range diff.Removed {
			fmt.Fprintf(w, "  - %q\n", truncate(key, 50))
		}
	}
}
