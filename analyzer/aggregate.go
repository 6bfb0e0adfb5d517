package analyzer

import (
	"math"
	"strings"
)

const (
	minScore = 0
	maxScore = 100
)

// evalContext is the per-call state shared by the evaluators. Nothing in it
// outlives one Evaluate call.
type evalContext struct {
	cfg      Config
	markup   string
	facts    *Facts
	keywords []string

	folder     *folder
	foldedText string
}

func newEvalContext(markup string, facts *Facts, keywords []string, cfg Config) *evalContext {
	f := newFolder()
	return &evalContext{
		cfg:        cfg,
		markup:     markup,
		facts:      facts,
		keywords:   normalizeKeywords(f, keywords),
		folder:     f,
		foldedText: f.fold(facts.PlainText),
	}
}

// normalizeKeywords trims, drops empty entries and removes case-insensitive
// duplicates while keeping the first occurrence's position.
func normalizeKeywords(f *folder, keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = collapseSpace(kw)
		if kw == "" {
			continue
		}
		key := f.fold(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func (ec *evalContext) contains(text, keyword string) bool {
	if text == "" || keyword == "" {
		return false
	}
	return strings.Contains(ec.folder.fold(text), ec.folder.fold(keyword))
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func roundScore(v float64) int {
	if math.IsNaN(v) {
		return minScore
	}
	return clamp(int(math.Round(v)))
}

func mean(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// ratio returns 100*n/total, or 0 when total is 0.
func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// overallScore applies the weights as given; they are not re-normalized.
func overallScore(w Weights, seo, readability, content, technical int) int {
	return roundScore(float64(seo)*w.SEO +
		float64(readability)*w.Readability +
		float64(content)*w.Content +
		float64(technical)*w.Technical)
}

// classify checks thresholds from the highest band down. Anything below fair
// is poor.
func classify(score int, t Thresholds) QualityCategory {
	switch {
	case score >= t.Excellent:
		return CategoryExcellent
	case score >= t.Good:
		return CategoryGood
	case score >= t.Fair:
		return CategoryFair
	default:
		return CategoryPoor
	}
}
