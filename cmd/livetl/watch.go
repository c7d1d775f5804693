package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/dom"
)

type watchFlags struct {
	lang   string
	output string
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch file",
		Short: "Keep a translated copy of an HTML file up to date",
		Long: `watch translates file once, then treats every save as an in-app navigation:
the new body replaces the live document and only strings missing from the
cache are sent to the service. The output is rewritten after each settled run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.lang == "" {
				return errors.New("--lang is required")
			}
			if flags.output == "" {
				return errors.New("--output is required")
			}

			a, err := loadApp(global, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w, err := newPageWatcher(a, args[0], flags.output, newIndicator(cmd.ErrOrStderr(), global.quiet))
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.translate(ctx, flags.lang); err != nil {
				return err
			}
			return w.loop(ctx)
		},
	}

	cmd.Flags().StringVarP(&flags.lang, "lang", "l", "", "target language code")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file")
	return cmd
}

// pageWatcher owns one live document mirrored from a source file.
type pageWatcher struct {
	app    *app
	source string
	output string
	doc    *dom.Document
	engine *livetl.Engine
	busy   *livetl.BusyIndicator
	keys   []string
}

func newPageWatcher(a *app, source, output string, progress *indicator) (*pageWatcher, error) {
	data, err := os.ReadFile(source) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	doc, err := dom.ParseString(string(data))
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}

	w := &pageWatcher{
		app:    a,
		source: abs,
		output: output,
		doc:    doc,
		busy:   livetl.NewBusyIndicator(),
	}
	w.engine = a.newEngine(doc, livetl.Handlers(w.busy.Handle, progress.Handle))
	w.keys = livetl.ScanKeys(doc, a.cfg.Engine.Roots...)
	return w, nil
}

func (w *pageWatcher) translate(ctx context.Context, lang string) error {
	if _, err := translateOnce(ctx, w.engine, w.busy, lang, w.app.cfg.Engine.Watchdog); err != nil {
		return err
	}
	return w.write()
}

// reload swaps the body of the live document for the body of the source
// file and waits for the resulting run.
func (w *pageWatcher) reload(ctx context.Context) error {
	data, err := os.ReadFile(w.source)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	next, err := dom.ParseString(string(data))
	if err != nil {
		return err
	}

	var body string
	next.View(func(gq *goquery.Document) {
		body, err = gq.Find("body").Html()
	})
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	keys := livetl.ScanKeys(next, w.app.cfg.Engine.Roots...)
	diff := livetl.DiffKeys(w.keys, keys)
	w.keys = keys
	if diff.HasChanges() {
		w.app.logger.Info("source changed",
			zap.Int("added", len(diff.Added)),
			zap.Int("removed", len(diff.Removed)),
			zap.Int("to_fetch", len(diff.NeedsTranslation(w.app.cache, w.engine.ActiveLanguage()))))
	} else {
		w.app.logger.Debug("source saved without text changes", zap.String("file", w.source))
	}

	if _, err := w.doc.SetInnerHTML("body", body); err != nil {
		return err
	}
	w.engine.OnNavigate()

	waitCtx, cancel := context.WithTimeout(ctx, w.app.cfg.Engine.Watchdog+5*time.Second)
	defer cancel()
	if err := w.busy.WaitIdle(waitCtx); err != nil {
		return err
	}
	if ev := w.busy.Last(); ev.Err != nil {
		w.app.logger.Warn("run after reload failed", zap.Error(ev.Err))
	}
	return w.write()
}

func (w *pageWatcher) write() error {
	content, err := w.doc.HTML()
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}
	if err := os.WriteFile(w.output, []byte(content), 0o644); err != nil { // #nosec G306 - output is a public document
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loop reloads on every write to the source until ctx is done. The parent
// directory is watched so that editors replacing the file are seen.
func (w *pageWatcher) loop(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.source)); err != nil {
		return fmt.Errorf("watching %s: %w", w.source, err)
	}
	w.app.logger.Info("watching for changes", zap.String("file", w.source), zap.String("output", w.output))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.app.logger.Warn("watcher error", zap.Error(err))
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != w.source {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.reload(ctx); err != nil {
				w.app.logger.Warn("reload failed", zap.Error(err))
			}
		}
	}
}

func (w *pageWatcher) close() {
	w.engine.Dispose()
}
