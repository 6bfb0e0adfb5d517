package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	sentenceLengthSevere  = 80
	sentenceLengthWarning = 60
	paragraphSevere       = 8
	paragraphWarning      = 5
	longSentenceLength    = 100
	longSentencePenalty   = 2
	structureBonus        = 5
)

// evaluateReadability measures length in characters rather than whitespace
// tokens so text written without spaces between words (Japanese, Chinese) is
// scored on the same scale as English.
func evaluateReadability(ec *evalContext) ReadabilityResult {
	facts := ec.facts
	res := ReadabilityResult{
		MetricResult:    newMetricResult(),
		CharacterCount:  utf8.RuneCountInString(facts.PlainText),
		HasBulletPoints: facts.HasBulletList,
		HasNumberedList: facts.HasNumberedList,
	}

	sentences := splitSentences(facts.PlainText, ec.cfg.SentenceTerminators)
	res.SentenceCount = len(sentences)
	res.ParagraphCount = facts.ParagraphCount
	if res.ParagraphCount < 1 && res.CharacterCount > 0 {
		res.ParagraphCount = 1
	}
	for _, s := range sentences {
		if utf8.RuneCountInString(s) > longSentenceLength {
			res.LongSentences++
		}
	}

	avgSentence := 0.0
	if res.SentenceCount > 0 {
		avgSentence = float64(res.CharacterCount) / float64(res.SentenceCount)
	}
	avgParagraph := 0.0
	if res.ParagraphCount > 0 {
		avgParagraph = float64(res.SentenceCount) / float64(res.ParagraphCount)
	}
	res.AvgSentenceLength = round2(avgSentence)
	res.AvgParagraphLength = round2(avgParagraph)

	for _, h := range facts.Headings {
		if h.Level <= 2 {
			res.HasIntroduction = true
			break
		}
	}
	res.HasConclusion = newPhraseMatcher(ec.folder, conclusionCues).containsAny(facts.PlainText)

	score := maxScore
	switch {
	case avgSentence > sentenceLengthSevere:
		score -= 20
	case avgSentence > sentenceLengthWarning:
		score -= 10
	}
	switch {
	case avgParagraph > paragraphSevere:
		score -= 15
	case avgParagraph > paragraphWarning:
		score -= 5
	}
	score -= longSentencePenalty * res.LongSentences
	for _, present := range []bool{res.HasIntroduction, res.HasConclusion, res.HasBulletPoints, res.HasNumberedList} {
		if present {
			score += structureBonus
		}
	}
	res.Score = clamp(score)

	readabilityIssues(&res, avgSentence, avgParagraph)
	return res
}

func readabilityIssues(res *ReadabilityResult, avgSentence, avgParagraph float64) {
	if avgSentence > sentenceLengthWarning {
		res.addIssue(
			fmt.Sprintf("Average sentence length is %.0f characters", avgSentence),
			"Split long sentences so most stay under 60 characters",
		)
	}
	if avgParagraph > paragraphWarning {
		res.addIssue(
			fmt.Sprintf("Paragraphs average %.1f sentences", avgParagraph),
			"Keep paragraphs to five sentences or fewer",
		)
	}
	if res.LongSentences > 0 {
		res.addIssue(
			fmt.Sprintf("%d sentences are longer than %d characters", res.LongSentences, longSentenceLength),
			"Rewrite the longest sentences as two shorter ones",
		)
	}
	if !res.HasBulletPoints && !res.HasNumberedList {
		res.addIssue("No lists found", "Use bullet or numbered lists to make key points scannable")
	}
	if !res.HasConclusion {
		res.addIssue("No concluding summary found", "Close with a short summary of the main points")
	}
}

// splitSentences splits on any rune in terminators. Text without a
// terminator is one sentence.
func splitSentences(text, terminators string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(terminators, r)
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
