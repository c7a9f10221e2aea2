package tasks

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReferencedImages returns the base names of all <img> sources found in
// contents. Inline data URIs are skipped.
func ReferencedImages(contents []string) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, content := range contents {
		z := html.NewTokenizer(strings.NewReader(content))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				break
			}
			if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
				continue
			}
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "src" {
					continue
				}
				if name := imageName(attr.Val); name != "" {
					refs[name] = struct{}{}
				}
			}
		}
	}
	return refs
}

func imageName(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
