package editor

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLEngine is an in-memory rich-text engine backed by an HTML document
// tree. Markup entering the engine is sanitised by its parser.
type HTMLEngine struct {
	root      *html.Node
	container *Container
	released  bool

	focused   bool
	selection Range

	listeners map[int]func(string)
	nextID    int
}

// NewHTMLEngine returns an empty, unattached engine.
func NewHTMLEngine() *HTMLEngine {
	return &HTMLEngine{
		root:      bodyContext(),
		listeners: make(map[int]func(string)),
	}
}

// HTMLEngineFactory is an EngineFactory producing HTML engines.
func HTMLEngineFactory() Engine { return NewHTMLEngine() }

func (e *HTMLEngine) Attach(c *Container) error {
	if e.released {
		return ErrReleased
	}
	if c == nil || c.ID == "" {
		return ErrNoContainer
	}
	e.container = c
	return nil
}

func (e *HTMLEngine) SetContent(markup string) {
	e.root = parseFragment(markup)
	if e.focused {
		e.selection = Range{}
	}
	e.emit()
}

func (e *HTMLEngine) Content() string {
	return renderChildren(e.root)
}

func (e *HTMLEngine) Normalize(markup string) string {
	return Sanitize(markup)
}

func (e *HTMLEngine) TextLength() int {
	n := 0
	walk(e.root, func(node *html.Node) bool {
		n += nodeLength(node)
		return true
	})
	return n
}

func (e *HTMLEngine) Selection() (Range, bool) {
	if !e.focused {
		return Range{}, false
	}
	return e.selection, true
}

func (e *HTMLEngine) SetSelection(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > e.TextLength() {
		return ErrInvalidRange
	}
	e.selection = r
	e.focused = true
	return nil
}

// Focus gives the engine input focus with the cursor at the end.
func (e *HTMLEngine) Focus() {
	if e.focused {
		return
	}
	e.focused = true
	end := e.TextLength()
	e.selection = Range{Start: end, End: end}
}

// Blur drops input focus and the selection with it.
func (e *HTMLEngine) Blur() {
	e.focused = false
}

func (e *HTMLEngine) Focused() bool { return e.focused }

// TypeText replaces the selection with text, as if typed by the user, and
// leaves the cursor after it. The engine takes focus if it had none.
func (e *HTMLEngine) TypeText(text string) {
	e.Focus()
	if !e.selection.Collapsed() {
		e.deleteRange(e.selection)
		e.selection.End = e.selection.Start
	}
	at := e.selection.Start
	parent, next := e.insertionPoint(at)
	parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, next)

	at += utf8.RuneCountInString(text)
	e.selection = Range{Start: at, End: at}
	e.emit()
}

func (e *HTMLEngine) InsertImage(at int, src, alt string) {
	if at < 0 {
		at = 0
	}
	if l := e.TextLength(); at > l {
		at = l
	}
	img := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	}
	if alt != "" {
		img.Attr = append(img.Attr, html.Attribute{Key: "alt", Val: alt})
	}
	parent, next := e.insertionPoint(at)
	parent.InsertBefore(img, next)

	if e.focused && e.selection.Start >= at {
		e.selection.Start++
		e.selection.End++
	}
	e.emit()
}

func (e *HTMLEngine) OnChange(fn func(string)) func() {
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

func (e *HTMLEngine) Release() {
	e.released = true
	e.container = nil
	e.listeners = make(map[int]func(string))
	e.root = bodyContext()
	e.focused = false
}

func (e *HTMLEngine) emit() {
	if e.released || len(e.listeners) == 0 {
		return
	}
	content := e.Content()
	// Listeners are called in registration order.
	for id := 0; id < e.nextID; id++ {
		if fn, ok := e.listeners[id]; ok {
			fn(content)
		}
	}
}

// insertionPoint splits the document at offset at and returns where a new
// node has to be inserted: before next inside parent (next may be nil).
func (e *HTMLEngine) insertionPoint(at int) (parent, next *html.Node) {
	count := 0
	var found bool
	walk(e.root, func(n *html.Node) bool {
		if found {
			return false
		}
		switch {
		case n.Type == html.TextNode:
			l := utf8.RuneCountInString(n.Data)
			if at-count <= l {
				parent, next = splitText(n, at-count)
				found = true
				return false
			}
			count += l
		case isObject(n):
			if at == count {
				parent, next = n.Parent, n
				found = true
				return false
			}
			count++
		}
		return true
	})
	if found {
		return parent, next
	}

	// End of document: append inside the last block, creating one if the
	// document is empty.
	last := e.root.LastChild
	if last != nil && last.Type == html.ElementNode && isTextContainer(last.DataAtom) {
		return last, nil
	}
	if last == nil {
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		e.root.AppendChild(p)
		return p, nil
	}
	return e.root, nil
}

// deleteRange removes the text in r. Images inside the range are removed too.
func (e *HTMLEngine) deleteRange(r Range) {
	count := 0
	var remove []*html.Node
	walk(e.root, func(n *html.Node) bool {
		switch {
		case n.Type == html.TextNode:
			runes := []rune(n.Data)
			l := len(runes)
			from := clamp(r.Start-count, 0, l)
			to := clamp(r.End-count, 0, l)
			if from < to {
				n.Data = string(runes[:from]) + string(runes[to:])
			}
			count += l
		case isObject(n):
			if count >= r.Start && count < r.End {
				remove = append(remove, n)
			}
			count++
		}
		return true
	})
	for _, n := range remove {
		n.Parent.RemoveChild(n)
	}
}

func splitText(n *html.Node, offset int) (parent, next *html.Node) {
	runes := []rune(n.Data)
	if offset <= 0 {
		return n.Parent, n
	}
	if offset >= len(runes) {
		return n.Parent, n.NextSibling
	}
	after := &html.Node{Type: html.TextNode, Data: string(runes[offset:])}
	n.Data = string(runes[:offset])
	n.Parent.InsertBefore(after, n.NextSibling)
	return n.Parent, after
}

// walk visits nodes in document order. Returning false from fn skips the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			walk(c, fn)
		}
	}
}

func nodeLength(n *html.Node) int {
	switch {
	case n.Type == html.TextNode:
		return utf8.RuneCountInString(n.Data)
	case isObject(n):
		return 1
	}
	return 0
}

func isObject(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Img
}

func isTextContainer(a atom.Atom) bool {
	switch a {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Li, atom.Div, atom.Figcaption:
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
