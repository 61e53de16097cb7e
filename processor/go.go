package processor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/duotext"
)

// GoProcessor treats comment groups and string literals in Go source as
// fields. Rewrites are spliced into the original bytes, so everything outside
// a rewritten field is left exactly as it was.
type GoProcessor struct {
	translateComments bool
	translateStrings  bool
}

// GoProcessorOption configures the Go processor.
type GoProcessorOption func(*GoProcessor)

// WithComments enables/disables comment fields.
func WithComments(enabled bool) GoProcessorOption {
	return func(p *GoProcessor) {
		p.translateComments = enabled
	}
}

// WithStrings enables/disables string literal fields.
func WithStrings(enabled bool) GoProcessorOption {
	return func(p *GoProcessor) {
		p.translateStrings = enabled
	}
}

// NewGoProcessor creates a new Go source processor.
func NewGoProcessor(opts ...GoProcessorOption) *GoProcessor {
	p := &GoProcessor{
		translateComments: true,
		translateStrings:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// goSpan is a byte range of the source that holds one field.
type goSpan struct {
	start, end int
	render     func(value string) string
}

type parsedGo struct {
	content string
	spans   map[string]goSpan
}

// Extract parses Go source and returns its comment and string fields.
func (p *GoProcessor) Extract(content string) (interface{}, []duotext.TextNode, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "source.go", content, parser.ParseComments)
	if err != nil {
		return nil, nil, &duotext.ProcessorError{
			Message:     "failed to parse Go source",
			Cause:       err,
			ContentType: "go",
		}
	}

	parsed := &parsedGo{content: content, spans: make(map[string]goSpan)}
	var nodes []duotext.TextNode
	offset := func(pos token.Pos) int { return fset.Position(pos).Offset }

	if p.translateComments {
		for _, cg := range file.Comments {
			text, render, ok := commentField(cg, content, offset)
			if !ok {
				continue
			}
			start := offset(cg.Pos())
			id := fmt.Sprintf("comment-%d", start)
			node := duotext.NewTextNode(id, text, "go_comment")
			node.Context = "Go source comment"
			node.Metadata["line"] = strconv.Itoa(fset.Position(cg.Pos()).Line)
			nodes = append(nodes, node)
			parsed.spans[id] = goSpan{start: start, end: offset(cg.End()), render: render}
		}
	}

	if p.translateStrings {
		skip := make(map[*ast.BasicLit]bool)
		var stack []ast.Node
		ast.Inspect(file, func(n ast.Node) bool {
			if n == nil {
				stack = stack[:len(stack)-1]
				return true
			}
			stack = append(stack, n)

			switch n := n.(type) {
			case *ast.ImportSpec:
				skip[n.Path] = true
			case *ast.Field:
				if n.Tag != nil {
					skip[n.Tag] = true
				}
			case *ast.BasicLit:
				if n.Kind != token.STRING || skip[n] {
					return true
				}
				text, raw, err := unquote(n.Value)
				if err != nil || !isTranslatableString(duotext.ExtractOriginal(text)) {
					return true
				}
				start := offset(n.Pos())
				id := fmt.Sprintf("string-%d", start)
				node := duotext.NewTextNode(id, text, "go_string")
				node.Context = literalContext(stack)
				node.Metadata["line"] = strconv.Itoa(fset.Position(n.Pos()).Line)
				if raw {
					node.Metadata["quote"] = "`"
				} else {
					node.Metadata["quote"] = `"`
				}
				nodes = append(nodes, node)
				parsed.spans[id] = goSpan{start: start, end: offset(n.End()), render: quoteLike(raw)}
			}
			return true
		})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return parsed.spans[nodes[i].ID].start < parsed.spans[nodes[j].ID].start
	})
	return parsed, nodes, nil
}

// Apply splices rewritten fields into the source, last span first.
func (p *GoProcessor) Apply(parsed interface{}, nodes []duotext.TextNode, rewrites map[string]string) (string, error) {
	pg, ok := parsed.(*parsedGo)
	if !ok {
		return "", invalidParsed("go")
	}

	spans := make([]goSpan, 0, len(rewrites))
	values := make(map[int]string, len(rewrites))
	for id, value := range rewrites {
		span, ok := pg.spans[id]
		if !ok {
			continue
		}
		spans = append(spans, span)
		values[span.start] = value
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	out := pg.content
	for _, span := range spans {
		out = out[:span.start] + span.render(values[span.start]) + out[span.end:]
	}
	return out, nil
}

// ContentType returns "go".
func (p *GoProcessor) ContentType() string {
	return "go"
}

// commentField reads a comment group as one field. Line groups become one
// line of text per comment; a lone block comment keeps its inner text.
// Directives, mixed styles and comments trailing code are not fields.
func commentField(cg *ast.CommentGroup, content string, offset func(token.Pos) int) (string, func(string) string, bool) {
	first := cg.List[0]

	if strings.HasPrefix(first.Text, "/*") {
		if len(cg.List) != 1 {
			return "", nil, false
		}
		text := strings.TrimSpace(first.Text[2 : len(first.Text)-2])
		if text == "" || strings.Contains(text, "*/") {
			return "", nil, false
		}
		return text, func(v string) string {
			return "/* " + strings.ReplaceAll(v, "*/", "* /") + " */"
		}, true
	}

	lines := make([]string, 0, len(cg.List))
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, "//") || isDirective(c.Text) {
			return "", nil, false
		}
		line := strings.TrimPrefix(c.Text[2:], " ")
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", nil, false
	}

	indent, ok := lineIndent(content, offset(first.Pos()))
	if !ok {
		// Trailing comments group only with comments on their own line.
		return "", nil, false
	}
	return text, func(v string) string {
		var b strings.Builder
		for i, line := range strings.Split(v, "\n") {
			if i > 0 {
				b.WriteString("\n" + indent)
			}
			if line == "" {
				b.WriteString("//")
			} else {
				b.WriteString("// " + line)
			}
		}
		return b.String()
	}, true
}

// isDirective matches //go:generate, //nolint:... and //line style comments.
func isDirective(c string) bool {
	body := c[2:]
	if body == "" || body[0] == ' ' || body[0] == '\t' {
		return false
	}
	if strings.HasPrefix(body, "line ") || strings.HasPrefix(body, "export ") || strings.HasPrefix(body, "extern ") {
		return true
	}
	name, _, found := strings.Cut(body, ":")
	return found && name != "" && strings.IndexFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) < 0
}

// lineIndent returns the text before offset on its line, and false when that
// text is not pure indentation.
func lineIndent(content string, offset int) (string, bool) {
	start := strings.LastIndexByte(content[:offset], '\n') + 1
	prefix := content[start:offset]
	return prefix, strings.TrimLeft(prefix, " \t") == ""
}

func unquote(lit string) (string, bool, error) {
	if strings.HasPrefix(lit, "`") {
		return lit[1 : len(lit)-1], true, nil
	}
	s, err := strconv.Unquote(lit)
	return s, false, err
}

// quoteLike renders a value in the literal's original quoting, falling back
// to an interpreted literal when a raw one cannot hold the value.
func quoteLike(raw bool) func(string) string {
	return func(v string) string {
		if raw && !strings.ContainsAny(v, "`\r") {
			return "`" + v + "`"
		}
		return strconv.Quote(v)
	}
}

// literalContext names the call a literal is passed to, if any.
func literalContext(stack []ast.Node) string {
	if len(stack) >= 2 {
		if call, ok := stack[len(stack)-2].(*ast.CallExpr); ok {
			return "Go string literal, argument to " + types.ExprString(call.Fun)
		}
	}
	return "Go string literal"
}

// isTranslatableString filters out literals that are unlikely to be prose.
func isTranslatableString(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	// paths and identifiers
	if strings.Contains(s, "/") && !strings.Contains(s, " ") {
		return false
	}
	// bare format verbs
	if strings.HasPrefix(s, "%") && len(s) < 5 {
		return false
	}
	// constants
	if s == strings.ToUpper(s) && !strings.Contains(s, " ") {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	}) >= 0
}

var _ ContentProcessor = (*GoProcessor)(nil)
