// Command livetl translates HTML documents with the livetl engine.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/livetl"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	provider   string
	debug      bool
	quiet      bool
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   livetl.Name,
		Short: "Incremental, cache-backed translation of HTML documents",
		Long: `livetl finds the visible text of an HTML document, translates strings it
has not seen before in deduplicated batches, and rewrites the document in place.

Examples:
  livetl translate page.html --lang fr -o page.fr.html
  livetl translate --lang ja --dry-run < page.html
  livetl watch page.html --lang de -o page.de.html
  livetl diff old.html new.html
  livetl languages --search thai`,
		Version:       livetl.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.livetl.yaml or ./.livetl.yaml)")
	pf.StringVar(&flags.provider, "provider", "", "translation provider: openai, http or mock (overrides config)")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress output")

	root.AddCommand(
		newTranslateCommand(flags),
		newWatchCommand(flags),
		newDiffCommand(flags),
		newLanguagesCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", livetl.Name, livetl.FullVersion())
			fmt.Fprintf(out, "  user agent: %s\n", livetl.UserAgent())
		},
	}
}
