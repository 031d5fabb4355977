package css

import "strings"

// Reference is a resource referenced from style sheet either by @import or by
// url() function.
type Reference struct {
	URL    string
	Import bool
}

// IsRemote reports whether reference points outside of the package.
func (r Reference) IsRemote() bool {
	u := strings.ToLower(r.URL)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "//")
}

// IsInline reports whether reference carries its data inline.
func (r Reference) IsInline() bool {
	return strings.HasPrefix(strings.ToLower(r.URL), "data:")
}

// FontFace is simplified @font-face declaration.
type FontFace struct {
	Family string
	Src    []string
}

// Stylesheet holds everything style sheet scan discovered.
type Stylesheet struct {
	References []Reference
	FontFaces  []FontFace
}

// HasRemote reports whether any reference is remote.
func (s *Stylesheet) HasRemote() bool {
	for _, r := range s.References {
		if r.IsRemote() {
			return true
		}
	}
	return false
}

// Local returns references to resources expected inside the package, in
// order of appearance and without duplicates. Fragment and query parts are
// dropped.
func (s *Stylesheet) Local() []string {
	var (
		seen = make(map[string]bool)
		out  []string
	)
	for _, r := range s.References {
		u, ok := localPath(r)
		if ok && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// FontFamily returns family of the @font-face declaration which loads local
// resource ref (as returned by Local), or empty string.
func (s *Stylesheet) FontFamily(ref string) string {
	for _, face := range s.FontFaces {
		for _, src := range face.Src {
			if u, ok := localPath(Reference{URL: src}); ok && u == ref {
				return face.Family
			}
		}
	}
	return ""
}

func localPath(r Reference) (string, bool) {
	if r.IsRemote() || r.IsInline() || r.URL == "" || strings.HasPrefix(r.URL, "#") {
		return "", false
	}
	u := r.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u, true
}
