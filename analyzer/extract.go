package analyzer

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Extractor turns raw markup into Facts. Implementations must never panic or
// fail on malformed input: anything they cannot find is left at its zero value.
type Extractor interface {
	Extract(markup string, cfg Config) *Facts
}

// PatternExtractor reads facts with case-insensitive regular expressions over
// the raw markup. It is tolerant of tag soup and does not build a tree.
type PatternExtractor struct{}

// Compiled once; regexp.Regexp is safe for concurrent use.
var (
	reTitle     = regexp.MustCompile(`(?is)<title\b[^>]*>(.*?)</title\s*>`)
	reMeta      = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	reLinkTag   = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	reHeading   = regexp.MustCompile(`(?is)<h([1-6])\b[^>]*>(.*?)</h[1-6]\s*>`)
	reImg       = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	reAnchor    = regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a\s*>`)
	reAttr      = regexp.MustCompile(`(?is)([a-z_:][-a-z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	reParagraph = regexp.MustCompile(`(?is)<p\b[^>]*>(.*?)(?:</p\s*>|<p\b|$)`)
	reParaOpen  = regexp.MustCompile(`(?i)<p\b`)

	reStructured = regexp.MustCompile(`(?i)application/ld\+json|\bitemscope\b|\bitemtype\s*=`)
	reSemantic   = regexp.MustCompile(`(?i)<(article|section|nav|header|footer|main|aside)\b`)
	reLazy       = regexp.MustCompile(`(?i)\bloading\s*=\s*["']?lazy|\.(webp|avif)\b|image/(webp|avif)`)
	reAsync      = regexp.MustCompile(`(?i)<script\b[^>]*\b(async|defer)\b`)
	reLang       = regexp.MustCompile(`(?i)<html\b[^>]*\blang\s*=\s*["']?[a-z]`)
	reBulletTag  = regexp.MustCompile(`(?i)<ul\b`)
	reNumberTag  = regexp.MustCompile(`(?i)<ol\b`)
	reBulletMD   = regexp.MustCompile(`(?m)^[ \t]*[-*+•][ \t]+\S`)
	reNumberMD   = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+\S`)

	reHeadBlock     = regexp.MustCompile(`(?is)<head\b.*?</head\s*>`)
	reScriptBlock   = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	reStyleBlock    = regexp.MustCompile(`(?is)<style\b.*?</style\s*>`)
	reNoscriptBlock = regexp.MustCompile(`(?is)<noscript\b.*?</noscript\s*>`)
	reComment       = regexp.MustCompile(`(?s)<!--.*?-->`)
	reTag           = regexp.MustCompile(`(?s)<[^>]*>`)
	reBlankLine     = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// Extract implements Extractor.
func (PatternExtractor) Extract(markup string, cfg Config) *Facts {
	facts := newFacts()

	if m := reTitle.FindStringSubmatch(markup); m != nil {
		facts.Title = cleanText(m[1])
	}

	for _, tag := range reMeta.FindAllString(markup, -1) {
		applyMeta(facts, parseAttrs(tag))
	}

	for _, tag := range reLinkTag.FindAllString(markup, -1) {
		if relHas(parseAttrs(tag)["rel"], "canonical") {
			facts.Technical.HasCanonical = true
		}
	}

	for _, m := range reHeading.FindAllStringSubmatch(markup, -1) {
		level, _ := strconv.Atoi(m[1])
		facts.Headings = append(facts.Headings, Heading{Level: level, Text: cleanText(m[2])})
	}

	for _, tag := range reImg.FindAllString(markup, -1) {
		attrs := parseAttrs(tag)
		facts.Images = append(facts.Images, newImage(attrs["src"], attrs["alt"]))
	}

	for _, m := range reAnchor.FindAllStringSubmatch(markup, -1) {
		href, ok := parseAttrs(m[1])["href"]
		if !ok {
			continue
		}
		facts.Links = append(facts.Links, newLink(href, cleanText(m[2]), cfg.BaseDomain))
	}

	facts.Technical.HasStructuredData = reStructured.MatchString(markup)
	facts.Technical.HasSemanticTags = reSemantic.MatchString(markup)
	facts.Technical.HasLazyLoading = reLazy.MatchString(markup)
	facts.Technical.HasAsyncOrDefer = reAsync.MatchString(markup)
	facts.HasLang = reLang.MatchString(markup)
	facts.HasBulletList = reBulletTag.MatchString(markup) || reBulletMD.MatchString(markup)
	facts.HasNumberedList = reNumberTag.MatchString(markup) || reNumberMD.MatchString(markup)
	facts.HasMalformedTags = hasMalformedTags(markup)

	body := stripNonContent(markup)
	facts.PlainText = cleanText(body)

	facts.ParagraphCount = len(reParaOpen.FindAllStringIndex(body, -1))
	for _, m := range reParagraph.FindAllStringSubmatch(body, -1) {
		if text := cleanText(m[1]); text != "" {
			facts.FirstParagraph = text
			break
		}
	}
	fillParagraphFallback(facts, body)

	return facts
}

func newFacts() *Facts {
	return &Facts{
		Headings: make([]Heading, 0),
		Images:   make([]Image, 0),
		Links:    make([]Link, 0),
	}
}

// fillParagraphFallback derives paragraphs from blank-line separated blocks
// when the markup has no <p> elements.
func fillParagraphFallback(facts *Facts, body string) {
	if facts.ParagraphCount > 0 && facts.FirstParagraph != "" {
		return
	}

	blocks := 0
	first := ""
	for _, block := range reBlankLine.Split(reTag.ReplaceAllString(body, " "), -1) {
		text := cleanText(block)
		if text == "" {
			continue
		}
		blocks++
		if first == "" {
			first = text
		}
	}

	if facts.ParagraphCount == 0 {
		facts.ParagraphCount = blocks
	}
	if facts.FirstParagraph == "" {
		facts.FirstParagraph = first
	}
}

func applyMeta(facts *Facts, attrs map[string]string) {
	name := strings.ToLower(strings.TrimSpace(attrs["name"]))
	property := strings.ToLower(strings.TrimSpace(attrs["property"]))
	content := strings.TrimSpace(html.UnescapeString(attrs["content"]))

	switch name {
	case "description":
		if facts.Description == "" {
			facts.Description = collapseSpace(content)
		}
	case "keywords":
		if facts.KeywordsMeta == "" {
			facts.KeywordsMeta = collapseSpace(content)
		}
	case "viewport":
		if strings.Contains(strings.ToLower(strings.ReplaceAll(content, " ", "")), "width=device-width") {
			facts.Technical.HasViewport = true
		}
	}

	if strings.HasPrefix(property, "og:") || strings.HasPrefix(name, "og:") {
		facts.Technical.HasOGTags = true
	}
	if strings.HasPrefix(name, "twitter:") || strings.HasPrefix(property, "twitter:") {
		facts.Technical.HasTwitterCards = true
	}
}

// parseAttrs returns the attributes of a single tag keyed by lower-case name.
// The first occurrence of a repeated attribute wins.
func parseAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range reAttr.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(m[1])
		if _, seen := attrs[key]; seen {
			continue
		}
		switch {
		case m[2] != "":
			attrs[key] = m[2]
		case m[3] != "":
			attrs[key] = m[3]
		default:
			attrs[key] = m[4]
		}
	}
	return attrs
}

func relHas(rel, value string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == value {
			return true
		}
	}
	return false
}

func newImage(src, alt string) Image {
	alt = collapseSpace(html.UnescapeString(alt))
	return Image{
		Src:    strings.TrimSpace(src),
		Alt:    alt,
		HasAlt: alt != "",
	}
}

func newLink(href, text, baseDomain string) Link {
	href = strings.TrimSpace(html.UnescapeString(href))
	return Link{
		Href:       href,
		Text:       text,
		IsInternal: isInternalLink(href, baseDomain),
	}
}

// isInternalLink treats every href that is not an absolute http(s) URL as
// internal, except mailto: and tel:. Absolute URLs are internal only when their
// host belongs to baseDomain.
func isInternalLink(href, baseDomain string) bool {
	h := strings.ToLower(href)
	if strings.HasPrefix(h, "mailto:") || strings.HasPrefix(h, "tel:") {
		return false
	}
	if strings.HasPrefix(h, "//") {
		h = "https:" + h
	}
	if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		return true
	}
	if baseDomain == "" {
		return false
	}

	u, err := url.Parse(h)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == baseDomain || strings.HasSuffix(host, "."+baseDomain)
}

// stripNonContent removes elements whose text is not page content.
func stripNonContent(markup string) string {
	s := reComment.ReplaceAllString(markup, " ")
	s = reHeadBlock.ReplaceAllString(s, " ")
	s = reScriptBlock.ReplaceAllString(s, " ")
	s = reStyleBlock.ReplaceAllString(s, " ")
	return reNoscriptBlock.ReplaceAllString(s, " ")
}

// cleanText strips tags, decodes entities and collapses whitespace.
func cleanText(fragment string) string {
	return collapseSpace(html.UnescapeString(reTag.ReplaceAllString(fragment, " ")))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasMalformedTags reports a '<' that opens a tag but is never closed before
// the next '<'. Comments, scripts and styles are ignored.
func hasMalformedTags(markup string) bool {
	s := reComment.ReplaceAllString(markup, "")
	s = reScriptBlock.ReplaceAllString(s, "")
	s = reStyleBlock.ReplaceAllString(s, "")

	for i := 0; i < len(s); i++ {
		if s[i] != '<' || i+1 >= len(s) || !opensTag(s[i+1]) {
			continue
		}
		rest := s[i+1:]
		closeAt := strings.IndexByte(rest, '>')
		if closeAt < 0 {
			return true
		}
		if nextOpen := strings.IndexByte(rest, '<'); nextOpen >= 0 && nextOpen < closeAt {
			return true
		}
		i += closeAt + 1
	}
	return false
}

func opensTag(c byte) bool {
	return c == '/' || c == '!' || c == '?' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
