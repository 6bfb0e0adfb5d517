package analyzer

import (
	"fmt"
	"sort"
)

const (
	recommendationScoreFloor = 80
	structureScoreFloor      = 70
	detailLevelFloor         = 60
	strengthScore            = 80
	maxPriorityImprovements  = 3
)

// rule is one row of the recommendation table. currentState receives the
// evaluation after every evaluator has run.
type rule struct {
	category       Dimension
	priority       Priority
	difficulty     Difficulty
	title          string
	recommendation string
	expectedImpact string
	estimatedTime  string
	triggered      func(ev *Evaluation) bool
	currentState   func(ev *Evaluation) string
}

// rules is evaluated top to bottom; this order breaks priority ties.
var rules = []rule{
	{
		category: DimensionSEO, priority: PriorityHigh, difficulty: DifficultyEasy,
		title:          "Optimize title",
		recommendation: "Write a 20 to 60 character title that leads with the primary keyword.",
		expectedImpact: "Higher click-through rate from search results",
		estimatedTime:  "5 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.SEO.Metadata.Title.Score < recommendationScoreFloor },
		currentState: func(ev *Evaluation) string {
			t := ev.SEO.Metadata.Title
			if !t.Present {
				return "No title tag"
			}
			return fmt.Sprintf("Title is %d characters (score %d)", t.Length, t.Score)
		},
	},
	{
		category: DimensionSEO, priority: PriorityHigh, difficulty: DifficultyEasy,
		title:          "Optimize meta description",
		recommendation: "Write a 120 to 160 character meta description that summarizes the page and invites the click.",
		expectedImpact: "Better search snippets and click-through rate",
		estimatedTime:  "10 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.SEO.Metadata.Description.Score < recommendationScoreFloor },
		currentState: func(ev *Evaluation) string {
			d := ev.SEO.Metadata.Description
			if !d.Present {
				return "No meta description"
			}
			return fmt.Sprintf("Meta description is %d characters (score %d)", d.Length, d.Score)
		},
	},
	{
		category: DimensionSEO, priority: PriorityHigh, difficulty: DifficultyEasy,
		title:          "Add H1 tag",
		recommendation: "Add a single H1 heading that states the main topic and contains the primary keyword.",
		expectedImpact: "Clearer topic signal for search engines and readers",
		estimatedTime:  "5 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.SEO.Headings.HasH1 },
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("No H1 among %d headings", ev.SEO.Headings.Count)
		},
	},
	{
		category: DimensionSEO, priority: PriorityHigh, difficulty: DifficultyMedium,
		title:          "Reduce keyword repetition",
		recommendation: "Replace some repetitions of the primary keyword with synonyms and related phrases.",
		expectedImpact: "Avoids over-optimization penalties",
		estimatedTime:  "30 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.SEO.Keywords.KeywordStuffing },
		currentState: func(ev *Evaluation) string {
			k := ev.SEO.Keywords
			return fmt.Sprintf("%q appears %d times (%.2f%% density)", k.Primary, k.Count, k.Density)
		},
	},
	{
		category: DimensionSEO, priority: PriorityMedium, difficulty: DifficultyEasy,
		title:          "Add alt attributes",
		recommendation: "Give every image an alt attribute that describes its content.",
		expectedImpact: "Better image search visibility and accessibility",
		estimatedTime:  "15 minutes",
		triggered: func(ev *Evaluation) bool {
			return ev.SEO.ImageOptimization.Count > ev.SEO.ImageOptimization.WithAlt
		},
		currentState: func(ev *Evaluation) string {
			img := ev.SEO.ImageOptimization
			return fmt.Sprintf("%d of %d images are missing alt attributes", img.Count-img.WithAlt, img.Count)
		},
	},
	{
		category: DimensionSEO, priority: PriorityMedium, difficulty: DifficultyMedium,
		title:          "Adjust keyword density",
		recommendation: "Use the primary keyword naturally so it makes up 1% to 3% of the words.",
		expectedImpact: "Stronger relevance for the target query",
		estimatedTime:  "20 minutes",
		triggered: func(ev *Evaluation) bool {
			k := ev.SEO.Keywords
			return k.Primary != "" && !k.KeywordStuffing && (k.Density < idealDensityMin || k.Density > idealDensityMax)
		},
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("Keyword density is %.2f%%", ev.SEO.Keywords.Density)
		},
	},
	{
		category: DimensionSEO, priority: PriorityMedium, difficulty: DifficultyEasy,
		title:          "Add Open Graph tags",
		recommendation: "Add og:title, og:description, og:image and og:url meta tags.",
		expectedImpact: "Rich previews when the page is shared",
		estimatedTime:  "10 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.SEO.Technical.OGTags },
		currentState:   func(*Evaluation) string { return "No Open Graph meta tags" },
	},
	{
		category: DimensionSEO, priority: PriorityLow, difficulty: DifficultyEasy,
		title:          "Use descriptive anchor text",
		recommendation: "Replace generic link text such as \"click here\" with words describing the target page.",
		expectedImpact: "Clearer link context for readers and crawlers",
		estimatedTime:  "10 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.SEO.Links.AnchorTextQuality },
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("%d links use vague anchor text", len(ev.SEO.Links.VagueAnchors))
		},
	},
	{
		category: DimensionReadability, priority: PriorityMedium, difficulty: DifficultyMedium,
		title:          "Shorten sentences",
		recommendation: "Split long sentences and keep one idea per sentence.",
		expectedImpact: "Easier reading and lower bounce rate",
		estimatedTime:  "30 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.Readability.AvgSentenceLength > sentenceLengthSevere },
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("Average sentence length is %.0f characters", ev.Readability.AvgSentenceLength)
		},
	},
	{
		category: DimensionReadability, priority: PriorityLow, difficulty: DifficultyEasy,
		title:          "Break up long paragraphs",
		recommendation: "Keep paragraphs to a few sentences each.",
		expectedImpact: "Text is easier to scan",
		estimatedTime:  "15 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.Readability.AvgParagraphLength > paragraphWarning },
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("Paragraphs average %.1f sentences", ev.Readability.AvgParagraphLength)
		},
	},
	{
		category: DimensionReadability, priority: PriorityLow, difficulty: DifficultyEasy,
		title:          "Add bullet lists",
		recommendation: "Present steps, features or key points as bullet lists.",
		expectedImpact: "Key points stand out for skimming readers",
		estimatedTime:  "10 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.Readability.HasBulletPoints },
		currentState:   func(*Evaluation) string { return "No bullet lists" },
	},
	{
		category: DimensionContent, priority: PriorityMedium, difficulty: DifficultyMedium,
		title:          "Add an introduction section",
		recommendation: "Open with an introduction or overview that sets out what the reader will learn.",
		expectedImpact: "Readers understand the page purpose immediately",
		estimatedTime:  "20 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.Content.Structure.Introduction < structureScoreFloor },
		currentState:   func(*Evaluation) string { return "No introduction heading" },
	},
	{
		category: DimensionContent, priority: PriorityMedium, difficulty: DifficultyMedium,
		title:          "Add a conclusion section",
		recommendation: "Close with a summary or conclusion that restates the key takeaways.",
		expectedImpact: "Stronger retention and a clear next step",
		estimatedTime:  "20 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.Content.Structure.Conclusion < structureScoreFloor },
		currentState:   func(*Evaluation) string { return "No conclusion heading" },
	},
	{
		category: DimensionContent, priority: PriorityLow, difficulty: DifficultyMedium,
		title:          "Add more subheadings",
		recommendation: "Divide the content into sections with H2 and H3 subheadings.",
		expectedImpact: "Better structure for readers and featured snippets",
		estimatedTime:  "20 minutes",
		triggered:      func(ev *Evaluation) bool { return ev.Content.Depth.DetailLevel < detailLevelFloor },
		currentState: func(ev *Evaluation) string {
			return fmt.Sprintf("Detail level score is %d", ev.Content.Depth.DetailLevel)
		},
	},
	{
		category: DimensionTechnical, priority: PriorityMedium, difficulty: DifficultyEasy,
		title:          "Add viewport meta tag",
		recommendation: "Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">.",
		expectedImpact: "Correct rendering on mobile devices",
		estimatedTime:  "2 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.Technical.Mobile.Viewport },
		currentState:   func(*Evaluation) string { return "No responsive viewport declared" },
	},
	{
		category: DimensionTechnical, priority: PriorityLow, difficulty: DifficultyEasy,
		title:          "Enable lazy loading",
		recommendation: "Add loading=\"lazy\" to images below the fold and prefer WebP or AVIF formats.",
		expectedImpact: "Faster initial page load",
		estimatedTime:  "10 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.Technical.Performance.LazyLoading },
		currentState:   func(*Evaluation) string { return "No lazy-loading hints" },
	},
	{
		category: DimensionTechnical, priority: PriorityLow, difficulty: DifficultyMedium,
		title:          "Use semantic HTML structure",
		recommendation: "Use article, section, nav, header and footer elements instead of generic containers.",
		expectedImpact: "Clearer document outline for assistive technology and crawlers",
		estimatedTime:  "30 minutes",
		triggered:      func(ev *Evaluation) bool { return !ev.Technical.HTMLQuality.SemanticTags },
		currentState:   func(*Evaluation) string { return "No semantic sectioning elements" },
	},
}

// recommend applies the rule table and sorts by priority, keeping table order
// for equal priorities.
func recommend(ev *Evaluation) []Recommendation {
	out := make([]Recommendation, 0, len(rules))
	for _, r := range rules {
		if !r.triggered(ev) {
			continue
		}
		out = append(out, Recommendation{
			Category:       r.category,
			Priority:       r.priority,
			Title:          r.title,
			CurrentState:   r.currentState(ev),
			Recommendation: r.recommendation,
			ExpectedImpact: r.expectedImpact,
			Difficulty:     r.difficulty,
			EstimatedTime:  r.estimatedTime,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

var dimensionLabels = []struct {
	dimension Dimension
	label     string
}{
	{DimensionSEO, "SEO"},
	{DimensionReadability, "Readability"},
	{DimensionContent, "Content depth"},
	{DimensionTechnical, "Technical implementation"},
}

func summarize(ev *Evaluation) Summary {
	s := Summary{
		Strengths:            make([]string, 0),
		Weaknesses:           make([]string, 0),
		PriorityImprovements: make([]string, 0, maxPriorityImprovements),
	}
	for _, d := range dimensionLabels {
		score := ev.Score(d.dimension)
		if score >= strengthScore {
			s.Strengths = append(s.Strengths, fmt.Sprintf("%s is strong (%d/100)", d.label, score))
		} else {
			s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("%s needs improvement (%d/100)", d.label, score))
		}
	}
	for _, rec := range ev.Recommendations {
		if rec.Priority != PriorityHigh || len(s.PriorityImprovements) == maxPriorityImprovements {
			break
		}
		s.PriorityImprovements = append(s.PriorityImprovements, rec.Title)
	}
	return s
}
