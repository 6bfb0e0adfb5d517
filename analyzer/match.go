package analyzer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
)

// Cue phrases. Matched case-insensitively as substrings.
var (
	conclusionCues = []string{
		"conclusion", "in summary", "summary", "to sum up", "to summarize", "key takeaways",
		"まとめ", "結論", "おわりに", "总结",
	}

	introductionHeadingMarkers = []string{
		"introduction", "overview", "intro", "はじめに", "概要", "導入",
	}

	conclusionHeadingMarkers = []string{
		"summary", "conclusion", "wrap-up", "takeaways", "まとめ", "結論", "おわりに",
	}

	// vagueAnchors must match the whole (trimmed, folded) anchor text.
	vagueAnchors = map[string]struct{}{
		"here": {}, "click": {}, "click here": {}, "more": {}, "read more": {},
		"learn more": {}, "this": {}, "link": {}, "こちら": {}, "ここ": {},
	}
)

// folder applies Unicode case folding. A cases.Caser keeps state between
// calls, so every evaluation builds its own folder.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(s)
}

// phraseMatcher answers "does the text contain any of these phrases". The
// underlying Aho-Corasick matcher mutates its counters on every match and must
// not be shared between goroutines.
type phraseMatcher struct {
	matcher *ahocorasick.Matcher
	folder  *folder
}

func newPhraseMatcher(f *folder, phrases []string) *phraseMatcher {
	folded := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(f.fold(p)); p != "" {
			folded = append(folded, p)
		}
	}
	pm := &phraseMatcher{folder: f}
	if len(folded) > 0 {
		pm.matcher = ahocorasick.NewStringMatcher(folded)
	}
	return pm
}

func (p *phraseMatcher) containsAny(text string) bool {
	if p.matcher == nil || text == "" {
		return false
	}
	return len(p.matcher.Match([]byte(p.folder.fold(text)))) > 0
}

// countFolded counts non-overlapping occurrences of needle in haystack. Both
// must already be folded.
func countFolded(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}

func isVagueAnchor(f *folder, text string) bool {
	_, ok := vagueAnchors[strings.TrimSpace(f.fold(text))]
	return ok
}
