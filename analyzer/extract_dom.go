package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DOMExtractor builds the same Facts as PatternExtractor from a parsed
// document tree. The HTML parser repairs broken markup, so malformed-tag and
// markdown list detection still look at the raw input.
type DOMExtractor struct{}

// Extract implements Extractor. Parsing failures fall back to the pattern
// extractor.
func (DOMExtractor) Extract(markup string, cfg Config) *Facts {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return PatternExtractor{}.Extract(markup, cfg)
	}

	facts := newFacts()
	facts.Title = collapseSpace(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		attrs := make(map[string]string, 3)
		for _, key := range []string{"name", "property", "content"} {
			if v, ok := s.Attr(key); ok {
				attrs[key] = v
			}
		}
		applyMeta(facts, attrs)
	})

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		if relHas(s.AttrOr("rel", ""), "canonical") {
			facts.Technical.HasCanonical = true
		}
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		facts.Headings = append(facts.Headings, Heading{
			Level: int(name[1] - '0'),
			Text:  domText(s),
		})
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		facts.Images = append(facts.Images, newImage(s.AttrOr("src", ""), s.AttrOr("alt", "")))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		facts.Links = append(facts.Links, newLink(s.AttrOr("href", ""), domText(s), cfg.BaseDomain))
	})

	facts.Technical.HasStructuredData = doc.Find(`script[type="application/ld+json"], [itemscope], [itemtype]`).Length() > 0
	facts.Technical.HasSemanticTags = doc.Find("article, section, nav, header, footer, main, aside").Length() > 0
	facts.Technical.HasLazyLoading = hasLazyHint(doc)
	facts.Technical.HasAsyncOrDefer = doc.Find("script[async], script[defer]").Length() > 0
	facts.HasLang = strings.TrimSpace(doc.Find("html").AttrOr("lang", "")) != ""

	facts.HasBulletList = doc.Find("ul").Length() > 0 || reBulletMD.MatchString(markup)
	facts.HasNumberedList = doc.Find("ol").Length() > 0 || reNumberMD.MatchString(markup)
	facts.HasMalformedTags = hasMalformedTags(markup)

	paragraphs := doc.Find("body p")
	facts.ParagraphCount = paragraphs.Length()
	paragraphs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		facts.FirstParagraph = domText(s)
		return facts.FirstParagraph == ""
	})

	// Removal mutates the tree, so it runs after every other query.
	body := doc.Find("body")
	body.Find("script, style, noscript, template").Remove()
	facts.PlainText = domText(body)

	if facts.ParagraphCount == 0 || facts.FirstParagraph == "" {
		fillParagraphFallback(facts, stripNonContent(markup))
	}
	return facts
}

// domText returns the text under s with every element boundary read as a
// space, the way the pattern extractor reads tags.
func domText(s *goquery.Selection) string {
	var b strings.Builder
	writeNodeText(s, &b)
	return collapseSpace(b.String())
}

func writeNodeText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
		case "#comment":
		default:
			b.WriteByte(' ')
			writeNodeText(c, b)
			b.WriteByte(' ')
		}
	})
}

func hasLazyHint(doc *goquery.Document) bool {
	found := false
	doc.Find("img, iframe, source, picture").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("loading", "")), "lazy") {
			found = true
			return false
		}
		for _, attr := range []string{"src", "srcset", "type"} {
			if reLazy.MatchString(s.AttrOr(attr, "")) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
