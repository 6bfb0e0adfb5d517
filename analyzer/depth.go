package analyzer

import "unicode/utf8"

const (
	// Stub: expertise is not assessed, only whether the author targeted keywords.
	expertiseWithKeywords    = 70
	expertiseWithoutKeywords = 50

	// Stub: originality is a fixed placeholder; no duplicate detection runs.
	placeholderOriginality = 75

	structureMarkerPresent = 90
	structureMarkerAbsent  = 60
	logicalFlowFallback    = 70

	detailPointsPerHeading = 15
)

func evaluateContent(ec *evalContext) ContentResult {
	facts := ec.facts
	res := ContentResult{MetricResult: newMetricResult()}

	length := float64(utf8.RuneCountInString(facts.PlainText))
	res.Depth.TopicCoverage = roundScore(length/1000*60 + 40)

	subheadings := 0
	for _, h := range facts.Headings {
		if h.Level >= 2 {
			subheadings++
		}
	}
	res.Depth.DetailLevel = clamp(subheadings * detailPointsPerHeading)

	res.Depth.Expertise = expertiseWithoutKeywords
	if len(ec.keywords) > 0 {
		res.Depth.Expertise = expertiseWithKeywords
	}

	intro := newPhraseMatcher(ec.folder, introductionHeadingMarkers)
	outro := newPhraseMatcher(ec.folder, conclusionHeadingMarkers)
	hasIntro, hasOutro := false, false
	for _, h := range facts.Headings {
		hasIntro = hasIntro || intro.containsAny(h.Text)
		hasOutro = hasOutro || outro.containsAny(h.Text)
	}

	res.Structure.Introduction = structureMarkerAbsent
	if hasIntro {
		res.Structure.Introduction = structureMarkerPresent
	}
	res.Structure.Conclusion = structureMarkerAbsent
	if hasOutro {
		res.Structure.Conclusion = structureMarkerPresent
	}
	res.Structure.LogicalFlow = logicalFlowFallback
	if hasIntro && hasOutro {
		res.Structure.LogicalFlow = structureMarkerPresent
	}

	res.Uniqueness = UniquenessScores{OriginalityScore: placeholderOriginality}

	res.Score = roundScore(mean(
		float64(res.Depth.TopicCoverage),
		float64(res.Depth.DetailLevel),
		float64(res.Depth.Expertise),
		float64(res.Structure.LogicalFlow),
		float64(res.Structure.Introduction),
		float64(res.Structure.Conclusion),
		float64(res.Uniqueness.OriginalityScore),
	))

	if res.Depth.TopicCoverage < 70 {
		res.addIssue("Content is short for thorough topic coverage", "Expand the body to cover the topic in more depth")
	}
	if res.Depth.DetailLevel < 60 {
		res.addIssue("Few subheadings break up the content", "Organize the body under H2 and H3 subheadings")
	}
	if !hasIntro {
		res.addIssue("No introduction section heading", "Open with an introduction or overview section")
	}
	if !hasOutro {
		res.addIssue("No conclusion section heading", "End with a summary or conclusion section")
	}
	return res
}
