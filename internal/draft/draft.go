// Package draft holds the in-memory state of the chapter being authored.
//
// The chapter body is a tagged variant: a draft carries either rich text or a
// PDF file, never both. Switching the mode replaces the variant, which drops
// the payload of the mode being left.
package draft

import (
	"strconv"
	"strings"

	"github.com/mrlokans/chapterdesk/internal/utils"
)

// Mode selects how the chapter content is authored.
type Mode string

const (
	ModeRichText Mode = "editor"
	ModePDF      Mode = "pdf"
)

// Field names used as keys of the validation error map. They match the wire
// field names so a server side error can be mapped onto the same form.
const (
	FieldChapterNumber = "chapter_number"
	FieldChapterTitle  = "chapter_title"
	FieldContent       = "content"
	FieldPDFFile       = "pdf_file"
)

// File is a binary resource picked by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload size in bytes.
func (f *File) Size() int { return len(f.Data) }

// Content is the mode specific part of a draft.
type Content interface {
	Mode() Mode
	isContent()
}

// RichText is chapter content authored in the editor.
type RichText struct {
	Body string
}

func (RichText) Mode() Mode { return ModeRichText }
func (RichText) isContent() {}

// PDF is chapter content supplied as an uploaded document.
type PDF struct {
	File *File
}

func (PDF) Mode() Mode { return ModePDF }
func (PDF) isContent() {}

// Draft is the chapter being authored.
type Draft struct {
	ChapterNumber string
	ChapterTitle  string
	Content       Content

	// Errors holds the outcome of the last Validate call.
	Errors map[string]string
}

// New returns an empty rich text draft.
func New() *Draft {
	return &Draft{Content: RichText{}}
}

// Mode reports the current authoring mode.
func (d *Draft) Mode() Mode {
	if d.Content == nil {
		return ModeRichText
	}
	return d.Content.Mode()
}

// Body returns the rich text body, or "" in PDF mode.
func (d *Draft) Body() string {
	if rt, ok := d.Content.(RichText); ok {
		return rt.Body
	}
	return ""
}

// File returns the selected PDF, or nil in rich text mode.
func (d *Draft) File() *File {
	if p, ok := d.Content.(PDF); ok {
		return p.File
	}
	return nil
}

// SetMode switches the authoring mode. The payload of the previous mode is
// discarded; setting the current mode again is a no-op.
func (d *Draft) SetMode(mode Mode) {
	if d.Mode() == mode && d.Content != nil {
		return
	}
	switch mode {
	case ModePDF:
		d.Content = PDF{}
	default:
		d.Content = RichText{}
	}
	delete(d.Errors, FieldContent)
	delete(d.Errors, FieldPDFFile)
}

// SetBody replaces the rich text body, switching to rich text mode first if
// needed.
func (d *Draft) SetBody(html string) {
	d.Content = RichText{Body: html}
}

// SetFile selects the PDF to upload, switching to PDF mode. When the title
// is still empty a title derived from the file name is suggested.
func (d *Draft) SetFile(f *File) {
	d.Content = PDF{File: f}
	if f != nil && strings.TrimSpace(d.ChapterTitle) == "" {
		d.ChapterTitle = utils.TitleFromFilename(f.Name)
	}
}

// SetTitle sets the chapter title.
func (d *Draft) SetTitle(title string) {
	d.ChapterTitle = title
}

// SetChapterNumber sets the optional chapter number.
func (d *Draft) SetChapterNumber(number string) {
	d.ChapterNumber = number
}

// Reset returns the draft to its freshly created state.
func (d *Draft) Reset() {
	*d = Draft{Content: RichText{}}
}

// Clone returns a copy that shares the file payload but not the error map.
func (d *Draft) Clone() *Draft {
	c := *d
	if d.Errors != nil {
		c.Errors = make(map[string]string, len(d.Errors))
		for k, v := range d.Errors {
			c.Errors[k] = v
		}
	}
	return &c
}

// Validate checks the draft and stores the result in Errors. An empty map
// means the draft can be submitted.
func (d *Draft) Validate() map[string]string {
	errs := make(map[string]string)

	if n := strings.TrimSpace(d.ChapterNumber); n != "" {
		if v, err := strconv.Atoi(n); err != nil || v <= 0 {
			errs[FieldChapterNumber] = "Chapter number must be a positive whole number"
		}
	}

	switch c := d.Content.(type) {
	case PDF:
		if c.File == nil || c.File.Size() == 0 {
			errs[FieldPDFFile] = "Choose a PDF file to upload"
		}
	default:
		if strings.TrimSpace(d.ChapterTitle) == "" {
			errs[FieldChapterTitle] = "Chapter title is required"
		}
		if IsBlankHTML(d.Body()) {
			errs[FieldContent] = "Chapter content is required"
		}
	}

	d.Errors = errs
	return errs
}
