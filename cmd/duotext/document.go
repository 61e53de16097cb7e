package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/config"
	"github.com/ZaguanLabs/duotext/processor"
	"github.com/ZaguanLabs/duotext/table"
	"github.com/redis/go-redis/v9"
)

// Input kinds. Content kinds are rewritten through a processor, table kinds
// are annotated field by field and saved.
const (
	kindHTML     = "html"
	kindGo       = "go"
	kindText     = "text"
	kindJSON     = "json"
	kindWorkbook = "xlsx"
	kindRedis    = "redis"
)

// textKey is the single field of a plain text input.
const textKey = "text"

func kindOf(input string) string {
	if strings.HasPrefix(input, "redis:") {
		return kindRedis
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".html", ".htm":
		return kindHTML
	case ".go":
		return kindGo
	case ".json":
		return kindJSON
	case ".xlsx", ".xlsm":
		return kindWorkbook
	}
	return kindText
}

// originalsPath is the sidecar that keeps the metadata slots of a JSON table.
func originalsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".originals.json"
}

// document is one opened input.
type document struct {
	name    string
	kind    string
	path    string
	content string

	memory   *table.MemoryTable
	workbook *table.Workbook
	redis    *table.RedisTable
	client   redis.UniversalClient
}

// result is what a run produced for a document.
type result struct {
	Content string
	Report  *duotext.Report
}

func openDocument(ctx context.Context, cfg *config.Config, input string) (*document, error) {
	if input == "" || input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		t := table.NewMemoryTable()
		t.Put(textKey, string(data))
		return &document{name: "stdin", kind: kindText, memory: t}, nil
	}

	doc := &document{name: filepath.Base(input), kind: kindOf(input), path: input}

	switch doc.kind {
	case kindRedis:
		if cfg.Cache.RedisURL == "" {
			return nil, errors.New("redis tables need cache.redis_url in the config")
		}
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		doc.client = redis.NewClient(opts)
		if err := doc.client.Ping(ctx).Err(); err != nil {
			_ = doc.client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		doc.name = strings.TrimPrefix(input, "redis:")
		doc.redis = table.NewRedisTable(doc.client, cfg.Cache.KeyPrefix, doc.name)
		return doc, nil

	case kindWorkbook:
		wb, err := table.OpenWorkbook(input)
		if err != nil {
			return nil, err
		}
		doc.workbook = wb
		return doc, nil
	}

	data, err := os.ReadFile(input) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	switch doc.kind {
	case kindJSON:
		t, err := table.ReadJSON(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		originals, err := readOriginals(originalsPath(input))
		if err != nil {
			return nil, err
		}
		t.SetOriginals(originals)
		doc.memory = t
	case kindText:
		doc.memory = table.NewMemoryTable()
		doc.memory.Put(textKey, string(data))
	default:
		doc.content = string(data)
	}
	return doc, nil
}

func readOriginals(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - sidecar of a user-specified file
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading originals: %w", err)
	}
	var originals map[string]string
	if err := json.Unmarshal(data, &originals); err != nil {
		return nil, fmt.Errorf("decoding originals %s: %w", path, err)
	}
	return originals, nil
}

// streams reports whether the result is content written to stdout or -o
// rather than a table saved in place.
func (d *document) streams() bool {
	return d.kind == kindHTML || d.kind == kindGo || d.kind == kindText
}

// fieldTable returns the table behind a table input, or nil for content.
func (d *document) fieldTable() duotext.FieldTable {
	switch {
	case d.memory != nil:
		return d.memory
	case d.workbook != nil:
		return d.workbook
	case d.redis != nil:
		return d.redis
	}
	return nil
}

func (d *document) processor() duotext.ContentProcessor {
	if d.kind == kindGo {
		return processor.NewGoProcessor()
	}
	return processor.NewHTMLProcessor()
}

// Apply runs action over the document.
func (d *document) Apply(ctx context.Context, a *duotext.Annotator, action duotext.Action, keys []string) (*result, error) {
	t := d.fieldTable()
	if t == nil {
		if len(keys) > 0 {
			return nil, errors.New("-keys only applies to table inputs")
		}
		processed, err := a.Process(ctx, d.content, d.kind, action)
		if err != nil {
			return nil, err
		}
		return &result{Content: processed.Content, Report: processed.Report}, nil
	}

	report, err := a.Run(ctx, t, action, keys...)
	if err != nil {
		return nil, err
	}
	res := &result{Report: report}
	if d.kind == kindText {
		if res.Content, err = t.GetText(ctx, textKey); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Nodes lists the fields of the document as it is now.
func (d *document) Nodes(ctx context.Context) ([]duotext.TextNode, error) {
	t := d.fieldTable()
	if t == nil {
		_, nodes, err := d.processor().Extract(d.content)
		return nodes, err
	}

	keys, err := t.Keys(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]duotext.TextNode, 0, len(keys))
	for _, key := range keys {
		raw, err := t.GetText(ctx, key)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, duotext.NewTextNode(key, raw, "field"))
	}
	return nodes, nil
}

// Inspectable returns a table that Inspect can read. Content inputs are
// copied into a memory table keyed by node ID.
func (d *document) Inspectable(ctx context.Context) (duotext.FieldTable, error) {
	if t := d.fieldTable(); t != nil {
		return t, nil
	}
	nodes, err := d.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	t := table.NewMemoryTable()
	for _, n := range nodes {
		t.Put(n.ID, n.Raw)
	}
	return t, nil
}

// Write stores the result. Content goes to output or, when emit is set, to
// stdout; tables are saved to output or in place.
func (d *document) Write(output string, res *result, stdout io.Writer, emit bool) error {
	switch d.kind {
	case kindHTML, kindGo, kindText:
		if output != "" {
			if err := os.WriteFile(output, []byte(res.Content), 0o644); err != nil {
				return fmt.Errorf("writing output file: %w", err)
			}
			return nil
		}
		if emit {
			_, err := io.WriteString(stdout, res.Content)
			return err
		}
		return nil

	case kindJSON:
		if output == "" {
			output = d.path
		}
		return d.writeJSON(output)

	case kindWorkbook:
		if output == "" {
			return d.workbook.Save()
		}
		return d.workbook.SaveAs(output)
	}
	return nil
}

func (d *document) writeJSON(path string) error {
	var buf bytes.Buffer
	if err := d.memory.WriteJSON(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	sidecar := originalsPath(path)
	originals := d.memory.Originals()
	if len(originals) == 0 {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing originals: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(originals, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(sidecar, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing originals: %w", err)
	}
	return nil
}

// Close releases the workbook or Redis connection.
func (d *document) Close() error {
	switch {
	case d.workbook != nil:
		return d.workbook.Close()
	case d.client != nil:
		return d.client.Close()
	}
	return nil
}
