package analyzer

const (
	// Stub: cache headers are not visible in markup, so cacheability is assumed.
	assumedCacheable = true
	// Stub: tap target sizes are not measured.
	assumedTouchFriendly = true
)

func evaluateTechnical(ec *evalContext) TechnicalResult {
	facts := ec.facts
	flags := facts.Technical
	res := TechnicalResult{MetricResult: newMetricResult()}

	res.HTMLQuality = HTMLQuality{
		ValidMarkup:   !facts.HasMalformedTags,
		SemanticTags:  flags.HasSemanticTags,
		Accessibility: facts.ImagesMissingAlt() == 0 && facts.HasLang,
	}
	htmlScore := groupScore(res.HTMLQuality.ValidMarkup, res.HTMLQuality.SemanticTags, res.HTMLQuality.Accessibility)
	res.HTMLQuality.Score = roundScore(htmlScore)

	res.Performance = PerformanceHints{
		LazyLoading:  flags.HasLazyLoading,
		AsyncScripts: flags.HasAsyncOrDefer,
		Cacheable:    assumedCacheable,
	}
	perfScore := groupScore(res.Performance.LazyLoading, res.Performance.AsyncScripts, res.Performance.Cacheable)
	res.Performance.Score = roundScore(perfScore)

	res.Mobile = MobileReadiness{
		Viewport:      flags.HasViewport,
		TouchFriendly: assumedTouchFriendly,
		FastLoading:   flags.HasLazyLoading && flags.HasAsyncOrDefer,
	}
	mobileScore := groupScore(res.Mobile.Viewport, res.Mobile.TouchFriendly, res.Mobile.FastLoading)
	res.Mobile.Score = roundScore(mobileScore)

	res.Score = roundScore(mean(htmlScore, perfScore, mobileScore))

	if !res.HTMLQuality.ValidMarkup {
		res.addIssue("Markup contains unclosed tags", "Close every tag and validate the HTML")
	}
	if !res.HTMLQuality.SemanticTags {
		res.addIssue("No semantic sectioning elements", "Wrap content in article, section, header and footer elements")
	}
	if !facts.HasLang {
		res.addIssue("The html element has no lang attribute", "Declare the page language with <html lang=\"...\">")
	}
	if !res.Performance.LazyLoading {
		res.addIssue("Images are not lazy loaded", "Add loading=\"lazy\" to below-the-fold images or serve WebP/AVIF")
	}
	if !res.Performance.AsyncScripts {
		res.addIssue("Scripts load synchronously", "Load non-critical scripts with async or defer")
	}
	if !res.Mobile.Viewport {
		res.addIssue("No responsive viewport meta tag", "Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
	}
	return res
}

func groupScore(flags ...bool) float64 {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return ratio(n, len(flags))
}
