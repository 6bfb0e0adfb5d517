package analyzer

import (
	"fmt"
	"strings"
)

// Heading is one h1-h6 element in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Image is one img element. HasAlt requires non-empty alt text.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	HasAlt bool   `json:"hasAlt"`
}

// Link is one anchor with an href.
type Link struct {
	Href       string `json:"href"`
	Text       string `json:"text"`
	IsInternal bool   `json:"isInternal"`
}

// TechnicalFlags are presence checks over the raw markup.
type TechnicalFlags struct {
	HasStructuredData bool `json:"hasStructuredData"`
	HasCanonical      bool `json:"hasCanonical"`
	HasViewport       bool `json:"hasViewport"`
	HasOGTags         bool `json:"hasOgTags"`
	HasTwitterCards   bool `json:"hasTwitterCards"`
	HasSemanticTags   bool `json:"hasSemanticTags"`
	HasLazyLoading    bool `json:"hasLazyLoading"`
	HasAsyncOrDefer   bool `json:"hasAsyncOrDefer"`
}

// Facts is everything the evaluators know about a document. Empty strings mean
// the element was absent. Facts are built once per evaluation and never
// modified afterwards.
type Facts struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	KeywordsMeta string         `json:"keywordsMeta"`
	Headings     []Heading      `json:"headings"`
	Images       []Image        `json:"images"`
	Links        []Link         `json:"links"`
	Technical    TechnicalFlags `json:"technical"`

	// PlainText is the tag-stripped body text every text metric is computed from.
	PlainText string `json:"plainText"`

	FirstParagraph   string `json:"firstParagraph"`
	ParagraphCount   int    `json:"paragraphCount"`
	HasBulletList    bool   `json:"hasBulletList"`
	HasNumberedList  bool   `json:"hasNumberedList"`
	HasLang          bool   `json:"hasLang"`
	HasMalformedTags bool   `json:"hasMalformedTags"`
}

// ImagesMissingAlt counts images without usable alt text.
func (f *Facts) ImagesMissingAlt() int {
	missing := 0
	for _, img := range f.Images {
		if !img.HasAlt {
			missing++
		}
	}
	return missing
}

// Dimension names one of the four evaluated areas.
type Dimension string

const (
	DimensionSEO         Dimension = "seo"
	DimensionReadability Dimension = "readability"
	DimensionContent     Dimension = "content"
	DimensionTechnical   Dimension = "technical"
)

// QualityCategory is the quality band derived from the overall score.
type QualityCategory string

const (
	CategoryExcellent QualityCategory = "excellent"
	CategoryGood      QualityCategory = "good"
	CategoryFair      QualityCategory = "fair"
	CategoryPoor      QualityCategory = "poor"
)

// Priority ranks recommendations. Higher values sort first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText encodes the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name.
func (p *Priority) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*p = PriorityLow
	case "medium":
		*p = PriorityMedium
	case "high":
		*p = PriorityHigh
	default:
		return fmt.Errorf("unknown priority %q", text)
	}
	return nil
}

// Difficulty estimates the effort of a recommendation.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MetricResult is the part every evaluator result shares.
type MetricResult struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

func newMetricResult() MetricResult {
	return MetricResult{Issues: make([]string, 0), Suggestions: make([]string, 0)}
}

func (m *MetricResult) addIssue(issue, suggestion string) {
	m.Issues = append(m.Issues, issue)
	m.Suggestions = append(m.Suggestions, suggestion)
}

// ElementScore scores one metadata element (title or description).
type ElementScore struct {
	Present   bool `json:"present"`
	Length    int  `json:"length"`
	Points    int  `json:"points"`
	MaxPoints int  `json:"maxPoints"`
	Score     int  `json:"score"`
}

type MetadataScore struct {
	Title           ElementScore `json:"title"`
	Description     ElementScore `json:"description"`
	HasKeywordsMeta bool         `json:"hasKeywordsMeta"`
	KeywordsMeta    int          `json:"keywordsMeta"`
	Score           int          `json:"score"`
}

type HeadingScore struct {
	Count            int     `json:"count"`
	HasH1            bool    `json:"hasH1"`
	LogicalHierarchy bool    `json:"logicalHierarchy"`
	KeywordCoverage  float64 `json:"keywordCoverage"`
	Score            int     `json:"score"`
}

// KeywordDensity describes one secondary keyword.
type KeywordDensity struct {
	Keyword            string  `json:"keyword"`
	Count              int     `json:"count"`
	Density            float64 `json:"density"`
	NaturalIntegration bool    `json:"naturalIntegration"`
}

type KeywordScore struct {
	Primary          string           `json:"primary"`
	Count            int              `json:"count"`
	TotalWords       int              `json:"totalWords"`
	Density          float64          `json:"density"`
	InTitle          bool             `json:"inTitle"`
	InDescription    bool             `json:"inDescription"`
	InH1             bool             `json:"inH1"`
	InFirstParagraph bool             `json:"inFirstParagraph"`
	KeywordStuffing  bool             `json:"keywordStuffing"`
	Secondary        []KeywordDensity `json:"secondary"`
	Score            int              `json:"score"`
}

type LinkScore struct {
	Internal          int      `json:"internal"`
	External          int      `json:"external"`
	InternalScore     int      `json:"internalScore"`
	ExternalScore     int      `json:"externalScore"`
	AnchorTextQuality bool     `json:"anchorTextQuality"`
	VagueAnchors      []string `json:"vagueAnchors"`
	Score             int      `json:"score"`
}

type ImageScore struct {
	Count          int  `json:"count"`
	WithAlt        int  `json:"withAlt"`
	Descriptive    int  `json:"descriptive"`
	HasLazyLoading bool `json:"hasLazyLoading"`
	Score          int  `json:"score"`
}

type TechnicalChecklist struct {
	StructuredData bool `json:"structuredData"`
	Canonical      bool `json:"canonical"`
	Viewport       bool `json:"viewport"`
	OGTags         bool `json:"ogTags"`
	TwitterCards   bool `json:"twitterCards"`
	Score          int  `json:"score"`
}

// SEOResult is the SEO evaluator output.
type SEOResult struct {
	MetricResult
	Metadata          MetadataScore      `json:"metadata"`
	Headings          HeadingScore       `json:"headingStructure"`
	Keywords          KeywordScore       `json:"keywordOptimization"`
	Links             LinkScore          `json:"links"`
	ImageOptimization ImageScore         `json:"imageOptimization"`
	Technical         TechnicalChecklist `json:"technical"`
}

// ReadabilityResult is the readability evaluator output. CharacterCount stands
// in for word count so that text without whitespace word boundaries is
// measured the same way as text with them.
type ReadabilityResult struct {
	MetricResult
	CharacterCount     int     `json:"characterCount"`
	SentenceCount      int     `json:"sentenceCount"`
	ParagraphCount     int     `json:"paragraphCount"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	AvgParagraphLength float64 `json:"avgParagraphLength"`
	LongSentences      int     `json:"longSentences"`
	HasIntroduction    bool    `json:"hasIntroduction"`
	HasConclusion      bool    `json:"hasConclusion"`
	HasBulletPoints    bool    `json:"hasBulletPoints"`
	HasNumberedList    bool    `json:"hasNumberedList"`
}

type DepthScores struct {
	TopicCoverage int `json:"topicCoverage"`
	DetailLevel   int `json:"detailLevel"`
	Expertise     int `json:"expertise"`
}

type StructureScores struct {
	LogicalFlow  int `json:"logicalFlow"`
	Introduction int `json:"introduction"`
	Conclusion   int `json:"conclusion"`
}

type UniquenessScores struct {
	OriginalityScore int  `json:"originalityScore"`
	DuplicateContent bool `json:"duplicateContent"`
}

// ContentResult is the content-depth evaluator output.
type ContentResult struct {
	MetricResult
	Depth      DepthScores      `json:"depth"`
	Structure  StructureScores  `json:"structure"`
	Uniqueness UniquenessScores `json:"uniqueness"`
}

type HTMLQuality struct {
	ValidMarkup   bool `json:"validMarkup"`
	SemanticTags  bool `json:"semanticTags"`
	Accessibility bool `json:"accessibility"`
	Score         int  `json:"score"`
}

type PerformanceHints struct {
	LazyLoading  bool `json:"lazyLoading"`
	AsyncScripts bool `json:"asyncScripts"`
	Cacheable    bool `json:"cacheable"`
	Score        int  `json:"score"`
}

type MobileReadiness struct {
	Viewport      bool `json:"viewport"`
	TouchFriendly bool `json:"touchFriendly"`
	FastLoading   bool `json:"fastLoading"`
	Score         int  `json:"score"`
}

// TechnicalResult is the technical evaluator output.
type TechnicalResult struct {
	MetricResult
	HTMLQuality HTMLQuality      `json:"htmlQuality"`
	Performance PerformanceHints `json:"performance"`
	Mobile      MobileReadiness  `json:"mobile"`
}

// Recommendation is one prioritized improvement.
type Recommendation struct {
	Category       Dimension  `json:"category"`
	Priority       Priority   `json:"priority"`
	Title          string     `json:"title"`
	CurrentState   string     `json:"currentState"`
	Recommendation string     `json:"recommendation"`
	ExpectedImpact string     `json:"expectedImpact"`
	Difficulty     Difficulty `json:"difficulty"`
	EstimatedTime  string     `json:"estimatedTime"`
}

type Summary struct {
	Strengths            []string `json:"strengths"`
	Weaknesses           []string `json:"weaknesses"`
	PriorityImprovements []string `json:"priorityImprovements"`
}

// Evaluation is the complete result of one evaluation call. Callers own the
// returned value; the analyzer keeps no reference to it.
type Evaluation struct {
	OverallScore    int               `json:"overallScore"`
	Category        QualityCategory   `json:"category"`
	SEO             SEOResult         `json:"seo"`
	Readability     ReadabilityResult `json:"readability"`
	Content         ContentResult     `json:"content"`
	Technical       TechnicalResult   `json:"technical"`
	Recommendations []Recommendation  `json:"recommendations"`
	Summary         Summary           `json:"summary"`
}

// Score returns the category score for a dimension.
func (e *Evaluation) Score(d Dimension) int {
	switch d {
	case DimensionSEO:
		return e.SEO.Score
	case DimensionReadability:
		return e.Readability.Score
	case DimensionContent:
		return e.Content.Score
	case DimensionTechnical:
		return e.Technical.Score
	}
	return 0
}
