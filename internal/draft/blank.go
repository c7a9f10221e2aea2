package draft

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsBlankHTML reports whether markup renders nothing worth saving: no
// visible text and no embedded media. "<p><br></p>" is blank.
func IsBlankHTML(markup string) bool {
	if strings.TrimSpace(markup) == "" {
		return true
	}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return true
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) != "" {
				return false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Img, atom.Video, atom.Audio:
				return false
			}
		}
	}
}
