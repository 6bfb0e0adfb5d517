package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	titlePresencePoints = 10
	titleLengthPoints   = 20
	titleLongPoints     = 10
	titleMinLength      = 20
	titleMaxLength      = 60

	descriptionPresencePoints = 8
	descriptionLengthPoints   = 7
	descriptionLongPoints     = 3
	descriptionMinLength      = 120
	descriptionMaxLength      = 160

	keywordsMetaPresent = 100
	keywordsMetaAbsent  = 50

	// neutralKeywordScore is used when no target keywords were supplied.
	neutralKeywordScore = 50
	noImagesScore       = 50

	stuffingDensity     = 5.0
	stuffingShare       = 0.05
	idealDensityMin     = 1.0
	idealDensityMax     = 3.0
	secondaryDensityMax = 3.0

	descriptiveAltMinLength = 10
)

func evaluateSEO(ec *evalContext) SEOResult {
	res := SEOResult{MetricResult: newMetricResult()}
	res.Metadata = scoreMetadata(ec.facts)
	res.Headings = scoreHeadings(ec)
	res.Keywords = scoreKeywords(ec)
	res.Links = scoreLinks(ec)
	res.ImageOptimization = scoreImages(ec.facts)
	res.Technical = scoreChecklist(ec.facts.Technical)

	structural := mean(
		float64(res.Headings.Score),
		float64(res.Keywords.Score),
		float64(res.Links.Score),
		float64(res.ImageOptimization.Score),
	)
	res.Score = roundScore(float64(res.Metadata.Score)*0.4 + structural*0.4 + float64(res.Technical.Score)*0.2)

	seoIssues(&res, ec.facts)
	return res
}

func seoIssues(res *SEOResult, facts *Facts) {
	title := res.Metadata.Title
	switch {
	case !title.Present:
		res.addIssue("Title tag is missing", "Add a descriptive title of 20 to 60 characters")
	case title.Length < titleMinLength:
		res.addIssue(
			fmt.Sprintf("Title is too short (%d characters)", title.Length),
			"Expand the title to 20 to 60 characters and include the primary keyword",
		)
	case title.Length > titleMaxLength:
		res.addIssue(
			fmt.Sprintf("Title is too long (%d characters)", title.Length),
			"Shorten the title to 60 characters or fewer so it is not truncated in results",
		)
	}

	desc := res.Metadata.Description
	switch {
	case !desc.Present:
		res.addIssue("Meta description is missing", "Add a meta description of 120 to 160 characters")
	case desc.Length < descriptionMinLength:
		res.addIssue(
			fmt.Sprintf("Meta description is too short (%d characters)", desc.Length),
			"Expand the meta description to 120 to 160 characters",
		)
	case desc.Length > descriptionMaxLength:
		res.addIssue(
			fmt.Sprintf("Meta description is too long (%d characters)", desc.Length),
			"Trim the meta description to 160 characters or fewer",
		)
	}

	if !res.Headings.HasH1 {
		res.addIssue("No H1 heading found", "Add exactly one H1 heading that states the page topic")
	}

	if missing := facts.ImagesMissingAlt(); missing > 0 {
		res.addIssue(
			fmt.Sprintf("%d of %d images are missing alt text", missing, len(facts.Images)),
			"Describe every image with an alt attribute",
		)
	}

	if !res.Technical.OGTags {
		res.addIssue("Open Graph tags are missing", "Add og:title, og:description and og:image meta tags")
	}

	if res.Keywords.KeywordStuffing {
		res.addIssue(
			fmt.Sprintf("Keyword %q appears too often (%.2f%% density)", res.Keywords.Primary, res.Keywords.Density),
			"Reduce repetitions of the primary keyword and use natural variations",
		)
	}
}

// scoreElement scores a title or description: presence points plus length
// points when inside [minLen,maxLen], a proportional share below minLen and
// longPoints above maxLen.
func scoreElement(text string, presence, lengthPoints, longPoints, minLen, maxLen int) ElementScore {
	length := utf8.RuneCountInString(text)
	es := ElementScore{Length: length, MaxPoints: presence + lengthPoints}
	if length == 0 {
		return es
	}

	es.Present = true
	points := presence
	switch {
	case length < minLen:
		points += lengthPoints * length / minLen
	case length > maxLen:
		points += longPoints
	default:
		points += lengthPoints
	}
	es.Points = points
	es.Score = roundScore(ratio(points, es.MaxPoints))
	return es
}

func scoreMetadata(facts *Facts) MetadataScore {
	ms := MetadataScore{
		Title: scoreElement(facts.Title,
			titlePresencePoints, titleLengthPoints, titleLongPoints, titleMinLength, titleMaxLength),
		Description: scoreElement(facts.Description,
			descriptionPresencePoints, descriptionLengthPoints, descriptionLongPoints,
			descriptionMinLength, descriptionMaxLength),
		HasKeywordsMeta: facts.KeywordsMeta != "",
		KeywordsMeta:    keywordsMetaAbsent,
	}
	if ms.HasKeywordsMeta {
		ms.KeywordsMeta = keywordsMetaPresent
	}
	ms.Score = roundScore(float64(ms.Title.Score)*0.4 + float64(ms.Description.Score)*0.4 + float64(ms.KeywordsMeta)*0.2)
	return ms
}

func scoreHeadings(ec *evalContext) HeadingScore {
	headings := ec.facts.Headings
	hs := HeadingScore{Count: len(headings)}

	points := 0.0
	for _, h := range headings {
		if h.Level == 1 {
			hs.HasH1 = true
			break
		}
	}
	if hs.HasH1 {
		points += 30
	}
	if len(headings) >= 3 {
		points += 30
	}

	hs.LogicalHierarchy = len(headings) > 0
	for i := 1; i < len(headings); i++ {
		if headings[i].Level > headings[i-1].Level+1 {
			hs.LogicalHierarchy = false
			break
		}
	}
	if hs.LogicalHierarchy {
		points += 20
	}

	if len(headings) > 0 && len(ec.keywords) > 0 {
		matcher := newPhraseMatcher(ec.folder, ec.keywords)
		covered := 0
		for _, h := range headings {
			if matcher.containsAny(h.Text) {
				covered++
			}
		}
		hs.KeywordCoverage = round2(float64(covered) / float64(len(headings)))
		points += 20 * float64(covered) / float64(len(headings))
	}

	hs.Score = roundScore(points)
	return hs
}

func scoreKeywords(ec *evalContext) KeywordScore {
	facts := ec.facts
	ks := KeywordScore{
		TotalWords: len(strings.Fields(facts.PlainText)),
		Secondary:  make([]KeywordDensity, 0),
	}
	if len(ec.keywords) == 0 {
		ks.Score = neutralKeywordScore
		return ks
	}

	ks.Primary = ec.keywords[0]
	ks.Count = countFolded(ec.foldedText, ec.folder.fold(ks.Primary))
	density := ec.density(ks.Count, ks.TotalWords)
	ks.Density = round2(density)

	ks.InTitle = ec.contains(facts.Title, ks.Primary)
	ks.InDescription = ec.contains(facts.Description, ks.Primary)
	for _, h := range facts.Headings {
		if h.Level == 1 {
			ks.InH1 = ec.contains(h.Text, ks.Primary)
			break
		}
	}
	ks.InFirstParagraph = ec.contains(facts.FirstParagraph, ks.Primary)
	ks.KeywordStuffing = density > stuffingDensity || float64(ks.Count) > stuffingShare*float64(ks.TotalWords)

	points := 0
	if ks.InTitle {
		points += 25
	}
	if ks.InDescription {
		points += 20
	}
	if ks.InH1 {
		points += 20
	}
	if ks.InFirstParagraph {
		points += 15
	}
	if density >= idealDensityMin && density <= idealDensityMax {
		points += 20
	}
	ks.Score = clamp(points)

	for _, kw := range ec.keywords[1:] {
		count := countFolded(ec.foldedText, ec.folder.fold(kw))
		d := ec.density(count, ks.TotalWords)
		ks.Secondary = append(ks.Secondary, KeywordDensity{
			Keyword:            kw,
			Count:              count,
			Density:            round2(d),
			NaturalIntegration: d > 0 && d < secondaryDensityMax,
		})
	}
	return ks
}

func (ec *evalContext) density(count, words int) float64 {
	if words == 0 {
		return 0
	}
	return float64(count) / float64(words) * 100
}

func scoreLinks(ec *evalContext) LinkScore {
	ls := LinkScore{AnchorTextQuality: true, VagueAnchors: make([]string, 0)}
	for _, l := range ec.facts.Links {
		if l.IsInternal {
			ls.Internal++
		} else {
			ls.External++
		}
		if isVagueAnchor(ec.folder, l.Text) {
			ls.AnchorTextQuality = false
			ls.VagueAnchors = append(ls.VagueAnchors, l.Text)
		}
	}

	ls.InternalScore = clamp(ls.Internal * 20)
	ls.ExternalScore = 60
	if ls.External > 0 {
		ls.ExternalScore = 80
	}
	ls.Score = roundScore(mean(float64(ls.InternalScore), float64(ls.ExternalScore)))
	return ls
}

func scoreImages(facts *Facts) ImageScore {
	is := ImageScore{
		Count:          len(facts.Images),
		HasLazyLoading: facts.Technical.HasLazyLoading,
	}
	if is.Count == 0 {
		is.Score = noImagesScore
		return is
	}

	for _, img := range facts.Images {
		if !img.HasAlt {
			continue
		}
		is.WithAlt++
		if utf8.RuneCountInString(img.Alt) > descriptiveAltMinLength && !strings.Contains(strings.ToLower(img.Alt), "image") {
			is.Descriptive++
		}
	}

	score := 0.5*ratio(is.WithAlt, is.Count) + 0.3*ratio(is.Descriptive, is.Count)
	if is.HasLazyLoading {
		score += 20
	}
	is.Score = roundScore(score)
	return is
}

func scoreChecklist(flags TechnicalFlags) TechnicalChecklist {
	tc := TechnicalChecklist{
		StructuredData: flags.HasStructuredData,
		Canonical:      flags.HasCanonical,
		Viewport:       flags.HasViewport,
		OGTags:         flags.HasOGTags,
		TwitterCards:   flags.HasTwitterCards,
	}
	for _, ok := range []bool{tc.StructuredData, tc.Canonical, tc.Viewport, tc.OGTags, tc.TwitterCards} {
		if ok {
			tc.Score += 20
		}
	}
	return tc
}
