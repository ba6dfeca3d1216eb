package readme

import "strings"

// Splice replaces the region of doc that starts at the first start marker
// for kind and ends at the first end marker after it, both inclusive, with
// fragment. The region may span lines. When either marker is missing doc
// is returned unchanged.
func Splice(doc, kind, fragment string) string {
	start := StartMarker(kind)
	end := EndMarker(kind)

	i := strings.Index(doc, start)
	if i < 0 {
		return doc
	}
	j := strings.Index(doc[i+len(start):], end)
	if j < 0 {
		return doc
	}
	stop := i + len(start) + j + len(end)

	var b strings.Builder
	b.Grow(len(doc) - (stop - i) + len(fragment))
	b.WriteString(doc[:i])
	b.WriteString(fragment)
	b.WriteString(doc[stop:])
	return b.String()
}

// Fragments holds the three rendered sections.
type Fragments struct {
	Index    string
	Category string
	Count    string
}

// Apply splices category, then index, then count into doc.
func (f Fragments) Apply(doc string) string {
	doc = Splice(doc, KindCategory, f.Category)
	doc = Splice(doc, KindIndex, f.Index)
	return Splice(doc, KindCount, f.Count)
}
