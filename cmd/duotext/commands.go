package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/config"
	"github.com/ZaguanLabs/duotext/server"
	"github.com/ZaguanLabs/duotext/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// jsonOutput is the -json result of an action.
type jsonOutput struct {
	Input     string          `json:"input"`
	Output    string          `json:"output,omitempty"`
	Content   string          `json:"content,omitempty"`
	Report    *duotext.Report `json:"report"`
	ElapsedMs int64           `json:"elapsed_ms"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printReport(w io.Writer, r *duotext.Report, elapsed time.Duration) {
	fmt.Fprintf(w, "\nDone in %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Fields:       %d\n", r.Total)
	fmt.Fprintf(w, "  Translated:   %d\n", r.Translated)
	fmt.Fprintf(w, "  From cache:   %d\n", r.Cached)
	fmt.Fprintf(w, "  Restored:     %d\n", r.Restored)
	fmt.Fprintf(w, "  Cleared:      %d\n", r.Cleared)
	fmt.Fprintf(w, "  Toggled:      %d\n", r.Toggled)
	fmt.Fprintf(w, "  Skipped:      %d\n", r.Skipped)
	if r.Failed > 0 {
		fmt.Fprintf(w, "  Failed:       %d\n", r.Failed)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
}

// runInspect prints the layout of every field without changing anything.
func runInspect(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) error {
	input := ""
	if len(opts.inputs) > 0 {
		input = opts.inputs[0]
	}
	doc, err := openDocument(ctx, cfg, input)
	if err != nil {
		return err
	}
	defer doc.Close()

	t, err := doc.Inspectable(ctx)
	if err != nil {
		return err
	}
	a := duotext.NewAnnotator(cfg.Translation.TargetLang, nil, cfg.AnnotatorOptions()...)
	states, err := a.Inspect(ctx, t, opts.keys...)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return writeJSON(stdout, states)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLAYOUT\tORIGINAL\tDISPLAY")
	for _, s := range states {
		fmt.Fprintf(tw, "%s\t%s\t%q\t%q\n", s.Key, s.Layout, shorten(s.Original, 40), shorten(s.Display, 40))
	}
	return tw.Flush()
}

// runDiff compares two versions of an input by field original, so
// re-annotated fields count as unchanged.
func runDiff(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) error {
	if len(opts.inputs) != 2 {
		return errors.New("diff needs two inputs: <old> <new>")
	}
	oldPath, newPath := opts.inputs[0], opts.inputs[1]

	oldNodes, err := documentNodes(ctx, cfg, oldPath)
	if err != nil {
		return fmt.Errorf("reading previous version: %w", err)
	}
	newNodes, err := documentNodes(ctx, cfg, newPath)
	if err != nil {
		return fmt.Errorf("reading new version: %w", err)
	}

	diff := duotext.DiffContentWithContext(oldNodes, newNodes)
	stats := diff.Stats()
	pending := duotext.Unannotated(newNodes)

	if opts.jsonOutput {
		type modified struct {
			Key string `json:"key"`
			Old string `json:"old"`
			New string `json:"new"`
		}
		out := struct {
			Previous         string            `json:"previous"`
			Current          string            `json:"current"`
			Stats            duotext.DiffStats `json:"stats"`
			NeedsTranslation []string          `json:"needs_translation"`
			Unannotated      []string          `json:"unannotated"`
			Added            []string          `json:"added,omitempty"`
			Removed          []string          `json:"removed,omitempty"`
			Modified         []modified        `json:"modified,omitempty"`
		}{
			Previous:         oldPath,
			Current:          newPath,
			Stats:            stats,
			NeedsTranslation: []string{},
			Unannotated:      []string{},
		}
		for _, n := range diff.NeedsTranslation() {
			out.NeedsTranslation = append(out.NeedsTranslation, n.Text)
		}
		for _, n := range pending {
			out.Unannotated = append(out.Unannotated, n.ID)
		}
		for _, n := range diff.Added {
			out.Added = append(out.Added, n.Text)
		}
		for _, n := range diff.Removed {
			out.Removed = append(out.Removed, n.Text)
		}
		for _, m := range diff.Modified {
			out.Modified = append(out.Modified, modified{Key: m.New.ID, Old: m.Old.Text, New: m.New.Text})
		}
		return writeJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Diff: %s vs %s\n\n", newPath, oldPath)
	fmt.Fprintf(stdout, "Summary:\n")
	fmt.Fprintf(stdout, "  Unchanged:   %d\n", stats.Unchanged)
	fmt.Fprintf(stdout, "  Added:       %d\n", stats.Added)
	fmt.Fprintf(stdout, "  Removed:     %d\n", stats.Removed)
	fmt.Fprintf(stdout, "  Modified:    %d\n", stats.Modified)
	fmt.Fprintf(stdout, "  Unannotated: %d\n\n", len(pending))

	if !diff.HasChanges() {
		fmt.Fprintf(stdout, "No changes detected.\n")
		return nil
	}

	fmt.Fprintf(stdout, "Needs translation: %d strings\n\n", len(diff.NeedsTranslation()))
	if len(diff.Added) > 0 {
		fmt.Fprintf(stdout, "Added:\n")
		for _, n := range diff.Added {
			fmt.Fprintf(stdout, "  + %q\n", shorten(n.Text, 50))
		}
		fmt.Fprintln(stdout)
	}
	if len(diff.Modified) > 0 {
		fmt.Fprintf(stdout, "Modified:\n")
		for _, m := range diff.Modified {
			fmt.Fprintf(stdout, "  ~ %q -> %q\n", shorten(m.Old.Text, 30), shorten(m.New.Text, 30))
		}
		fmt.Fprintln(stdout)
	}
	if len(diff.Removed) > 0 {
		fmt.Fprintf(stdout, "Removed:\n")
		for _, n := range diff.Removed {
			fmt.Fprintf(stdout, "  - %q\n", shorten(n.Text, 50))
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func documentNodes(ctx context.Context, cfg *config.Config, input string) ([]duotext.TextNode, error) {
	doc, err := openDocument(ctx, cfg, input)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.Nodes(ctx)
}

// runServe exposes the codec and, with a Redis URL, Redis tables over HTTP.
func runServe(ctx context.Context, cfg *config.Config, opts options, logger *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	annotator, finish, err := newAnnotator(cfg, opts, false, logger, duotext.WithMetrics(duotext.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer finish()

	// Validate has already checked the placement.
	placement, _ := duotext.ParsePlacement(cfg.Translation.Placement)
	serverOpts := []server.Option{
		server.WithAnnotator(annotator),
		server.WithGatherer(reg),
		server.WithPlacement(placement),
	}

	if cfg.Cache.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		defer client.Close()

		prefix := cfg.Cache.KeyPrefix
		serverOpts = append(serverOpts, server.WithTables(func(name string) duotext.FieldTable {
			return table.NewRedisTable(client, prefix, name)
		}))
	}

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Server.Addr,
		"version": duotext.FullVersion(),
	}).Info("serving")

	return server.New(logger, serverOpts...).ListenAndServe(ctx, cfg.Server.Addr)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
