package shared

import (
	"regexp"
	"strings"
)

var (
	// "(From "Aashiqui 2")", "[Live at Wembley]"
	annotationRegex = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)

	// " - Remastered 2009", " - Radio Edit", " - 2011 Live Version"
	editionRegex = regexp.MustCompile(
		`(?i)\s+[-–—]\s+[^-–—]*?\b(?:remaster(?:ed)?|live|radio edit|acoustic|remix|version|edit|mix|demo|reprise|instrumental)\b.*$`,
	)
)

// NormalizeTitle reduces a track title or artist name to a comparable form.
//
// Bracketed annotations and a trailing dash clause naming an edition marker are dropped,
// then the result is lowercased with whitespace collapsed. Normalizing twice yields the same string.
func NormalizeTitle(s string) string {
	s = annotationRegex.ReplaceAllString(s, "")
	s = editionRegex.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeTrackKey builds the "title|artist" key used for fuzzy track matching.
func NormalizeTrackKey(title, artist string) string {
	return NormalizeTitle(title) + "|" + NormalizeTitle(artist)
}
