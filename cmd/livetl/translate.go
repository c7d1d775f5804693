package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/cache"
	"github.com/ZaguanLabs/livetl/dom"
)

type translateFlags struct {
	lang      string
	output    string
	dryRun    bool
	jsonOut   bool
	dumpCache string
}

func newTranslateCommand(global *globalFlags) *cobra.Command {
	flags := &translateFlags{}

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate an HTML document (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, global, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.lang, "lang", "l", "", "target language code (e.g. fr, ja, zh_CN)")
	f.StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "list the strings that would be translated without calling the service")
	f.BoolVar(&flags.jsonOut, "json", false, "print the result as JSON")
	f.StringVar(&flags.dumpCache, "dump-cache", "", "write the translation cache to this JSON file")
	return cmd
}

// readInput reads the file argument, or stdin without one.
func readInput(cmd *cobra.Command, args []string) (content, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

func runTranslate(cmd *cobra.Command, args []string, global *globalFlags, flags *translateFlags) error {
	if flags.lang == "" {
		return errors.New("--lang is required")
	}

	input, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	doc, err := dom.ParseString(input)
	if err != nil {
		return err
	}

	a, err := loadApp(global, cmd.ErrOrStderr(), !flags.dryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	if flags.dryRun {
		return printDryRun(cmd.OutOrStdout(), name, flags.lang, livetl.ScanKeys(doc, a.cfg.Engine.Roots...), flags.jsonOut)
	}

	busy := livetl.NewBusyIndicator()
	progress := newIndicator(cmd.ErrOrStderr(), global.quiet || flags.jsonOut)
	engine := a.newEngine(doc, livetl.Handlers(busy.Handle, progress.Handle))
	defer engine.Dispose()

	ev, err := translateOnce(cmd.Context(), engine, busy, flags.lang, a.cfg.Engine.Watchdog)
	if err != nil {
		return err
	}

	if flags.dumpCache != "" {
		meta := map[string]string{"source": name, "lang": flags.lang}
		if err := cache.NewExporter(a.cache).ExportToFile(flags.dumpCache, meta); err != nil {
			return fmt.Errorf("dumping cache: %w", err)
		}
	}

	content, err := doc.HTML()
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	stats := livetl.RunStats{}
	if ev.Stats != nil {
		stats = *ev.Stats
	}
	if flags.jsonOut {
		return outputJSON(out, content, stats)
	}
	if _, err := io.WriteString(out, content); err != nil {
		return err
	}
	if !global.quiet {
		renderStats(cmd.ErrOrStderr(), name, flags.lang, stats)
	}
	return nil
}

// translateOnce selects lang and waits until the engine is idle. The wait
// is bounded by the watchdog ceiling plus a grace period.
func translateOnce(ctx context.Context, engine *livetl.Engine, busy *livetl.BusyIndicator, lang string, watchdog time.Duration) (livetl.Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	engine.Start()
	if err := engine.SelectLanguage(lang); err != nil {
		return livetl.Event{}, err
	}

	if watchdog <= 0 {
		watchdog = livetl.DefaultWatchdog
	}
	waitCtx, cancel := context.WithTimeout(ctx, watchdog+5*time.Second)
	defer cancel()
	if err := busy.WaitIdle(waitCtx); err != nil {
		engine.OnUnload()
		return livetl.Event{}, fmt.Errorf("waiting for translation: %w", err)
	}

	ev := busy.Last()
	if ev.Err != nil {
		return ev, fmt.Errorf("translation failed: %w", ev.Err)
	}
	if ev.Forced {
		return ev, errors.New("translation did not settle before the watchdog fired")
	}
	return ev, nil
}

func printDryRun(w io.Writer, name, lang string, keys []string, jsonOut bool) error {
	if jsonOut {
		type dryRunOutput struct {
			InputFile  string   `json:"input_file"`
			TargetLang string   `json:"target_lang"`
			KeyCount   int      `json:"key_count"`
			Texts      []string `json:"texts"`
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dryRunOutput{InputFile: name, TargetLang: lang, KeyCount: len(keys), Texts: keys})
	}

	fmt.Fprintf(w, "Dry run: %s -> %s\n", name, lang)
	fmt.Fprintf(w, "Found %d translatable strings:\n\n", len(keys))
	for i, key := range keys {
		fmt.Fprintf(w, "%3d. %q\n", i+1, truncate(key, 60))
	}
	return nil
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content    string `json:"content"`
	Units      int    `json:"units"`
	UniqueKeys int    `json:"unique_keys"`
	CachedKeys int    `json:"cached_keys"`
	Translated int    `json:"translated"`
	Fallback   int    `json:"fallback"`
	Failed     int    `json:"failed"`
	Applied    int    `json:"applied"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, content string, stats livetl.RunStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONOutput{
		Content:    content,
		Units:      stats.Units,
		UniqueKeys: stats.UniqueKeys,
		CachedKeys: stats.CachedKeys,
		Translated: stats.Translated,
		Fallback:   stats.Fallback,
		Failed:     stats.Failed,
		Applied:    stats.Applied,
		ElapsedMs:  stats.ElapsedTime.Milliseconds(),
	})
}

func renderStats(w io.Writer, name, lang string, stats livetl.RunStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s -> %s", name, livetl.GetLanguageName(lang)))
	tw.AppendRows([]table.Row{
		{"Text units", stats.Units},
		{"Unique strings", stats.UniqueKeys},
		{"From cache", stats.CachedKeys},
		{"Translated", stats.Translated},
		{"Fallback", stats.Fallback},
		{"Failed", stats.Failed},
		{"Nodes rewritten", stats.Applied},
		{"Elapsed", stats.ElapsedTime.Round(time.Millisecond)},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
