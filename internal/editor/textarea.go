package editor

import (
	"html"
	"unicode/utf8"
)

// TextArea is the degraded engine used when the rich-text engine cannot be
// mounted. It edits the markup as plain source text: no parsing, no
// formatting, nothing is lost.
type TextArea struct {
	value     []rune
	focused   bool
	selection Range
	listeners map[int]func(string)
	nextID    int
}

// NewTextArea returns an empty text area.
func NewTextArea() *TextArea {
	return &TextArea{listeners: make(map[int]func(string))}
}

// Attach always succeeds; a text area needs no container.
func (t *TextArea) Attach(*Container) error { return nil }

func (t *TextArea) SetContent(markup string) {
	t.value = []rune(markup)
	if t.focused {
		t.selection = Range{}
	}
	t.emit()
}

func (t *TextArea) Content() string { return string(t.value) }
func (t *TextArea) Normalize(m string) string { return m }
func (t *TextArea) TextLength() int { return len(t.value) }
func (t *TextArea) Focused() bool { return t.focused }

func (t *TextArea) Selection() (Range, bool) {
	if !t.focused {
		return Range{}, false
	}
	return t.selection, true
}

func (t *TextArea) SetSelection(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > len(t.value) {
		return ErrInvalidRange
	}
	t.selection = r
	t.focused = true
	return nil
}

// TypeText replaces the selection with text.
func (t *TextArea) TypeText(text string) {
	if !t.focused {
		t.focused = true
		t.selection = Range{Start: len(t.value), End: len(t.value)}
	}
	ins := []rune(text)
	out := make([]rune, 0, len(t.value)+len(ins))
	out = append(out, t.value[:t.selection.Start]...)
	out = append(out, ins...)
	out = append(out, t.value[t.selection.End:]...)
	t.value = out
	at := t.selection.Start + len(ins)
	t.selection = Range{Start: at, End: at}
	t.emit()
}

func (t *TextArea) InsertImage(at int, src, alt string) {
	at = clamp(at, 0, len(t.value))
	tag := `<img src="` + html.EscapeString(src) + `"`
	if alt != "" {
		tag += ` alt="` + html.EscapeString(alt) + `"`
	}
	tag += ">"

	ins := []rune(tag)
	out := make([]rune, 0, len(t.value)+len(ins))
	out = append(out, t.value[:at]...)
	out = append(out, ins...)
	out = append(out, t.value[at:]...)
	t.value = out

	if t.focused && t.selection.Start >= at {
		n := utf8.RuneCountInString(tag)
		t.selection.Start += n
		t.selection.End += n
	}
	t.emit()
}

func (t *TextArea) OnChange(fn func(string)) func() {
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() { delete(t.listeners, id) }
}

func (t *TextArea) Release() {
	t.listeners = make(map[int]func(string))
	t.value = nil
	t.focused = false
}

func (t *TextArea) emit() {
	content := string(t.value)
	for id := 0; id < t.nextID; id++ {
		if fn, ok := t.listeners[id]; ok {
			fn(content)
		}
	}
}
