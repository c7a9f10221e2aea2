package editor

import "golang.org/x/net/html"

// ImageRef is an image taken out of markup by DetachImages.
type ImageRef struct {
	Src string
	Alt string

	// Offset is where the image sat in the remaining document, in selection
	// offsets.
	Offset int
}

// DetachImages removes every image whose src satisfies match and returns the
// sanitised remainder together with the removed images in document order.
// Re-inserting each ref at its Offset restores the original layout.
func DetachImages(markup string, match func(src string) bool) (string, []ImageRef) {
	root := parseFragment(markup)

	var refs []ImageRef
	var detached []*html.Node
	count := 0
	walk(root, func(n *html.Node) bool {
		if isObject(n) {
			if src := attrValue(n, "src"); match(src) {
				refs = append(refs, ImageRef{Src: src, Alt: attrValue(n, "alt"), Offset: count})
				detached = append(detached, n)
				return false
			}
		}
		count += nodeLength(n)
		return true
	})
	for _, n := range detached {
		n.Parent.RemoveChild(n)
	}
	return renderChildren(root), refs
}
