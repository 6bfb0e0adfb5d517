package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/seo-optimizer/content-quality/analyzer"
)

// MarkdownWriter renders snapshots as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

var dimensions = []struct {
	dim   analyzer.Dimension
	label string
}{
	{analyzer.DimensionSEO, "SEO"},
	{analyzer.DimensionReadability, "Readability"},
	{analyzer.DimensionContent, "Content"},
	{analyzer.DimensionTechnical, "Technical"},
}

func (w *MarkdownWriter) Write(snapshot *Snapshot) (int, error) {
	md := markdown.NewMarkdown(w.output)
	ev := snapshot.Evaluation

	w.writeHeader(md, snapshot)
	w.writeScores(md, ev)
	w.writeSummary(md, ev.Summary)
	w.writeRecommendations(md, ev.Recommendations)
	w.writeIssues(md, ev)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated %s*", snapshot.GeneratedAt.Format(time.RFC3339))

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Snapshot) {
	md.H1("Content Quality Report")
	md.PlainText("")

	source := s.Source
	if source == "" {
		source = "-"
	}
	keywords := "-"
	if len(s.Keywords) > 0 {
		keywords = strings.Join(s.Keywords, ", ")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", source},
			{"Keywords", keywords},
			{"Overall Score", strconv.Itoa(s.Evaluation.OverallScore)},
			{"Category", string(s.Evaluation.Category)},
			{"Snapshot", "`" + s.ID.String() + "`"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, ev *analyzer.Evaluation) {
	md.H2("Scores")
	md.PlainText("")

	rows := make([][]string, 0, len(dimensions)+1)
	for _, d := range dimensions {
		rows = append(rows, []string{d.label, strconv.Itoa(ev.Score(d.dim))})
	}
	rows = append(rows, []string{"**Overall**", "**" + strconv.Itoa(ev.OverallScore) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Dimension", "Score"}, Rows: rows})
	md.PlainText("")

	switch ev.Category {
	case analyzer.CategoryExcellent:
		md.Tipf("Excellent content quality (%d/100).", ev.OverallScore)
	case analyzer.CategoryGood:
		md.Notef("Good content quality (%d/100).", ev.OverallScore)
	case analyzer.CategoryFair:
		md.Importantf("Fair content quality (%d/100). Review the high priority recommendations.", ev.OverallScore)
	default:
		md.Warningf("Poor content quality (%d/100). Several areas need work.", ev.OverallScore)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s analyzer.Summary) {
	md.H2("Summary")
	md.PlainText("")

	writeList := func(title string, items []string, ordered bool) {
		md.H3(title)
		md.PlainText("")
		switch {
		case len(items) == 0:
			md.PlainText("None.")
		case ordered:
			md.OrderedList(items...)
		default:
			md.BulletList(items...)
		}
		md.PlainText("")
	}

	writeList("Strengths", s.Strengths, false)
	writeList("Weaknesses", s.Weaknesses, false)
	writeList("Priority Improvements", s.PriorityImprovements, true)
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, recs []analyzer.Recommendation) {
	md.H2("Recommendations")
	md.PlainText("")

	if len(recs) == 0 {
		md.PlainText("No recommendations.")
		md.PlainText("")
		return
	}

	groups := []struct {
		priority analyzer.Priority
		header   string
	}{
		{analyzer.PriorityHigh, "High Priority"},
		{analyzer.PriorityMedium, "Medium Priority"},
		{analyzer.PriorityLow, "Low Priority"},
	}

	for _, g := range groups {
		var rows [][]string
		var group []analyzer.Recommendation
		for _, r := range recs {
			if r.Priority != g.priority {
				continue
			}
			group = append(group, r)
			rows = append(rows, []string{
				r.Title,
				string(r.Category),
				truncateString(r.CurrentState, 60),
				string(r.Difficulty),
				r.EstimatedTime,
			})
		}
		if len(rows) == 0 {
			continue
		}

		md.H3(g.header)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Category", "Current State", "Difficulty", "Time"},
			Rows:   rows,
		})
		md.PlainText("")
		for _, r := range group {
			md.Details(r.Title, r.Recommendation+" "+r.ExpectedImpact)
		}
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, ev *analyzer.Evaluation) {
	md.H2("Issues")
	md.PlainText("")

	for _, d := range dimensions {
		issues := dimensionIssues(ev, d.dim)
		md.H3(d.label)
		md.PlainText("")
		if len(issues) == 0 {
			md.PlainText("No issues found.")
		} else {
			md.BulletList(issues...)
		}
		md.PlainText("")
	}
}

func dimensionIssues(ev *analyzer.Evaluation, d analyzer.Dimension) []string {
	switch d {
	case analyzer.DimensionSEO:
		return ev.SEO.Issues
	case analyzer.DimensionReadability:
		return ev.Readability.Issues
	case analyzer.DimensionContent:
		return ev.Content.Issues
	case analyzer.DimensionTechnical:
		return ev.Technical.Issues
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
