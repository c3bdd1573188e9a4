package directory

import (
	"strings"

	"github.com/JakeFAU/automuseums-gpx/internal/hash/sha256"
)

// Slug derives the cache file basename of a museum page from the last path
// segment of its relative URL. Every byte outside [A-Za-z0-9] becomes '_'.
func Slug(relativeURL string) string {
	u := relativeURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	// The site sometimes inserts /index.php/ in the middle, so only the last
	// segment is stable.
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if u == "" {
		return "index"
	}

	var b strings.Builder
	b.Grow(len(u))
	for _, r := range u {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// SlugSet hands out slugs that are unique within one country. When two
// different URLs sanitize to the same slug, the later one gets a short
// digest of its URL appended.
type SlugSet struct {
	hasher *sha256.Hasher
	owners map[string]string
}

// NewSlugSet returns an empty SlugSet.
func NewSlugSet() *SlugSet {
	return &SlugSet{
		hasher: sha256.New(),
		owners: make(map[string]string),
	}
}

// Assign returns the slug for relativeURL. Repeated calls with the same URL
// return the same slug.
func (s *SlugSet) Assign(relativeURL string) string {
	slug := Slug(relativeURL)
	owner, taken := s.owners[slug]
	if taken && owner != relativeURL {
		slug = slug + "_" + s.hasher.Short(relativeURL, 8)
	}
	s.owners[slug] = relativeURL
	return slug
}
