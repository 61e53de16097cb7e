package processor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/duotext"
	"golang.org/x/net/html"
)

// HTMLProcessor treats every non-blank text node as a field.
type HTMLProcessor struct {
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{ignoredTags: duotext.IgnoredTags}
}

// NewHTMLProcessorWithIgnoredTags creates an HTML processor that skips tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool, len(tags))
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{ignoredTags: ignored}
}

type parsedHTML struct {
	doc      *goquery.Document
	nodes    map[string]*html.Node
	fragment bool
}

// Extract parses content and returns one node per text node. Nodes with the
// same text get distinct IDs; the annotator deduplicates by hash.
func (p *HTMLProcessor) Extract(content string) (interface{}, []duotext.TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &duotext.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}

	parsed := &parsedHTML{
		doc:      doc,
		nodes:    make(map[string]*html.Node),
		fragment: !strings.Contains(strings.ToLower(content), "<html"),
	}
	var nodes []duotext.TextNode

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && p.skipElement(n) {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			id := fmt.Sprintf("node-%d", len(nodes))
			node := duotext.NewTextNode(id, strings.TrimSpace(n.Data), "html_text")
			node.Context = buildContext(n)
			if n.Parent != nil {
				node.Metadata["parent_tag"] = n.Parent.Data
			}
			nodes = append(nodes, node)
			parsed.nodes[id] = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return parsed, nodes, nil
}

func (p *HTMLProcessor) skipElement(n *html.Node) bool {
	if p.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" || (attr.Key == "translate" && attr.Val == "no") {
			return true
		}
	}
	return false
}

// Apply writes rewritten values into their text nodes, keeping the
// surrounding whitespace of each node.
func (p *HTMLProcessor) Apply(parsed interface{}, nodes []duotext.TextNode, rewrites map[string]string) (string, error) {
	ph, ok := parsed.(*parsedHTML)
	if !ok {
		return "", invalidParsed("html")
	}

	for id, value := range rewrites {
		if n, ok := ph.nodes[id]; ok {
			n.Data = preserveWhitespace(n.Data, value)
		}
	}

	var out string
	var err error
	if ph.fragment {
		out, err = ph.doc.Find("body").Html()
	} else {
		out, err = ph.doc.Html()
	}
	if err != nil {
		return "", &duotext.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// buildContext describes where a text node sits: its parent tag with class
// or id, and up to three ancestors.
func buildContext(n *html.Node) string {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return ""
	}

	var parts []string
	switch {
	case attr(parent, "class") != "":
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", parent.Data, attr(parent, "class")))
	case attr(parent, "id") != "":
		parts = append(parts, fmt.Sprintf("in <%s id=%q>", parent.Data, attr(parent, "id")))
	default:
		parts = append(parts, fmt.Sprintf("in <%s>", parent.Data))
	}

	var ancestors []string
	for a := parent.Parent; a != nil && len(ancestors) < 3; a = a.Parent {
		if a.Type == html.ElementNode && a.Data != "html" && a.Data != "body" {
			ancestors = append([]string{a.Data}, ancestors...)
		}
	}
	if len(ancestors) > 0 {
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}
	return strings.Join(parts, " | ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// preserveWhitespace keeps the leading and trailing whitespace of original around value.
func preserveWhitespace(original, value string) string {
	trimmedLeft := strings.TrimLeft(original, " \t\n\r")
	leading := original[:len(original)-len(trimmedLeft)]
	trailing := trimmedLeft[len(strings.TrimRight(trimmedLeft, " \t\n\r")):]
	return leading + value + trailing
}

var _ ContentProcessor = (*HTMLProcessor)(nil)
