package editor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elements removed together with everything inside them.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Base:     true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Form:     true,
	atom.Input:    true,
	atom.Button:   true,
	atom.Textarea: true,
	atom.Select:   true,
}

// Formatting elements every engine understands.
var coreElements = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Span: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Strong: true, atom.B: true, atom.Em: true, atom.I: true, atom.U: true, atom.S: true,
	atom.Sub: true, atom.Sup: true, atom.Mark: true, atom.Small: true,
	atom.Blockquote: true, atom.Pre: true, atom.Code: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.A: true,
}

// Attributes kept per element. Everything else, event handlers included, is
// stripped.
var allowedAttrs = map[atom.Atom]map[string]bool{
	atom.A:    {"href": true, "title": true, "target": true, "rel": true},
	atom.Img:  {"src": true, "alt": true, "title": true, "width": true, "height": true},
	atom.Ol:   {"start": true},
	atom.Td:   {"colspan": true, "rowspan": true},
	atom.Th:   {"colspan": true, "rowspan": true},
	atom.Code: {"class": true},
	atom.Pre:  {"class": true},
}

var globalAttrs = map[string]bool{"class": true, "style": true, "dir": true, "lang": true}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// parseFragment parses markup as body content and sanitises the result. The
// returned nodes are children of a fresh body element.
func parseFragment(markup string) *html.Node {
	root := bodyContext()
	nodes, err := html.ParseFragment(strings.NewReader(markup), root)
	if err != nil {
		// The tokenizer only fails on reader errors; a string reader has none.
		return root
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	sanitizeChildren(root)
	return root
}

func sanitizeChildren(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			parent.RemoveChild(c)
		case html.ElementNode:
			switch {
			case droppedElements[c.DataAtom]:
				parent.RemoveChild(c)
			case c.DataAtom != 0 && (coreElements[c.DataAtom] || pluginAllows(c.DataAtom)):
				c.Attr = filterAttrs(c)
				if c.DataAtom == atom.Img && attrValue(c, "src") == "" {
					parent.RemoveChild(c)
					break
				}
				sanitizeChildren(c)
			default:
				// Unknown element: keep its content, drop the wrapper.
				sanitizeChildren(c)
				for gc := c.FirstChild; gc != nil; {
					gnext := gc.NextSibling
					c.RemoveChild(gc)
					parent.InsertBefore(gc, c)
					gc = gnext
				}
				parent.RemoveChild(c)
			}
		}
		c = next
	}
}

func filterAttrs(n *html.Node) []html.Attribute {
	allowed := allowedAttrs[n.DataAtom]
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" || strings.HasPrefix(key, "on") {
			continue
		}
		if !globalAttrs[key] && !allowed[key] {
			continue
		}
		if (key == "href" || key == "src") && !safeURL(n.DataAtom, a.Val) {
			continue
		}
		kept = append(kept, html.Attribute{Key: key, Val: a.Val})
	}
	return kept
}

func safeURL(el atom.Atom, raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, v)
	switch {
	case strings.HasPrefix(v, "javascript:"), strings.HasPrefix(v, "vbscript:"):
		return false
	case strings.HasPrefix(v, "data:"):
		return el == atom.Img && strings.HasPrefix(v, "data:image/")
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderChildren(root *html.Node) string {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// Sanitize parses markup as chapter body content and renders it back with
// disallowed elements and attributes removed. Elements contributed by
// plugins are only kept once RegisterPlugins has run.
func Sanitize(markup string) string {
	return renderChildren(parseFragment(markup))
}
