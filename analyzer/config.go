package analyzer

import "strings"

// Extractor names accepted in Config.Extractor.
const (
	ExtractorPattern = "pattern"
	ExtractorDOM     = "dom"
)

// Default configuration values.
const (
	DefaultWeightSEO         = 0.4
	DefaultWeightReadability = 0.3
	DefaultWeightContent     = 0.2
	DefaultWeightTechnical   = 0.1

	DefaultThresholdExcellent = 85
	DefaultThresholdGood      = 70
	DefaultThresholdFair      = 50
	DefaultThresholdPoor      = 0

	DefaultMinWordCount         = 1000
	DefaultMaxWordCount         = 3000
	DefaultIdealSentenceLength  = 40
	DefaultTargetKeywordDensity = 2.0

	DefaultSentenceTerminators = ".!?。！？"
)

// Weights scale each category score into the overall score. They are not
// re-normalized; keeping them summing to 1 is the caller's job.
type Weights struct {
	SEO         float64 `json:"seo" yaml:"seo"`
	Readability float64 `json:"readability" yaml:"readability"`
	Content     float64 `json:"content" yaml:"content"`
	Technical   float64 `json:"technical" yaml:"technical"`
}

// Thresholds are the lower bounds of each quality category.
type Thresholds struct {
	Excellent int `json:"excellent" yaml:"excellent"`
	Good      int `json:"good" yaml:"good"`
	Fair      int `json:"fair" yaml:"fair"`
	Poor      int `json:"poor" yaml:"poor"`
}

// Targets are advisory content targets. They are validated and carried with
// the configuration but no scoring rule reads them yet.
type Targets struct {
	MinWordCount         int     `json:"minWordCount" yaml:"min_word_count"`
	MaxWordCount         int     `json:"maxWordCount" yaml:"max_word_count"`
	IdealSentenceLength  int     `json:"idealSentenceLength" yaml:"ideal_sentence_length"`
	TargetKeywordDensity float64 `json:"targetKeywordDensity" yaml:"target_keyword_density"`
}

// Config controls one evaluation. Zero values take their defaults, so a
// partially filled Config is valid input.
type Config struct {
	Weights    Weights    `json:"weights" yaml:"weights"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	Targets    Targets    `json:"targets" yaml:"targets"`

	// BaseDomain classifies absolute http(s) links as internal when their host
	// is this domain or one of its subdomains.
	BaseDomain string `json:"baseDomain" yaml:"base_domain"`
	// SentenceTerminators is the set of runes that end a sentence.
	SentenceTerminators string `json:"sentenceTerminators" yaml:"sentence_terminators"`
	// Extractor selects "pattern" (default) or "dom".
	Extractor string `json:"extractor" yaml:"extractor"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			SEO:         DefaultWeightSEO,
			Readability: DefaultWeightReadability,
			Content:     DefaultWeightContent,
			Technical:   DefaultWeightTechnical,
		},
		Thresholds: Thresholds{
			Excellent: DefaultThresholdExcellent,
			Good:      DefaultThresholdGood,
			Fair:      DefaultThresholdFair,
			Poor:      DefaultThresholdPoor,
		},
		Targets: Targets{
			MinWordCount:         DefaultMinWordCount,
			MaxWordCount:         DefaultMaxWordCount,
			IdealSentenceLength:  DefaultIdealSentenceLength,
			TargetKeywordDensity: DefaultTargetKeywordDensity,
		},
		SentenceTerminators: DefaultSentenceTerminators,
		Extractor:           ExtractorPattern,
	}
}

// WithDefaults returns a copy of c with defaults filled in. Thresholds and
// targets default field by field; weights default only when all four are
// zero, since a single zero weight is meaningful. A nil receiver yields
// DefaultConfig.
func (c *Config) WithDefaults() Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}

	out := *c
	if out.Weights == (Weights{}) {
		out.Weights = def.Weights
	}
	out.Thresholds.Excellent = orDefault(out.Thresholds.Excellent, def.Thresholds.Excellent)
	out.Thresholds.Good = orDefault(out.Thresholds.Good, def.Thresholds.Good)
	out.Thresholds.Fair = orDefault(out.Thresholds.Fair, def.Thresholds.Fair)
	out.Targets.MinWordCount = orDefault(out.Targets.MinWordCount, def.Targets.MinWordCount)
	out.Targets.MaxWordCount = orDefault(out.Targets.MaxWordCount, def.Targets.MaxWordCount)
	out.Targets.IdealSentenceLength = orDefault(out.Targets.IdealSentenceLength, def.Targets.IdealSentenceLength)
	out.Targets.TargetKeywordDensity = orDefault(out.Targets.TargetKeywordDensity, def.Targets.TargetKeywordDensity)
	if out.SentenceTerminators == "" {
		out.SentenceTerminators = def.SentenceTerminators
	}
	out.Extractor = strings.ToLower(strings.TrimSpace(out.Extractor))
	if out.Extractor == "" {
		out.Extractor = def.Extractor
	}
	out.BaseDomain = normalizeDomain(out.BaseDomain)
	return out
}

func orDefault[T int | float64](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

// Validate checks ranges and ordering. It expects defaults to be applied.
func (c *Config) Validate() error {
	weights := []struct {
		field string
		value float64
	}{
		{"weights.seo", c.Weights.SEO},
		{"weights.readability", c.Weights.Readability},
		{"weights.content", c.Weights.Content},
		{"weights.technical", c.Weights.Technical},
	}
	for _, w := range weights {
		if w.value < 0 {
			return invalidConfig(w.field, "must not be negative")
		}
	}

	thresholds := []struct {
		field string
		value int
	}{
		{"thresholds.excellent", c.Thresholds.Excellent},
		{"thresholds.good", c.Thresholds.Good},
		{"thresholds.fair", c.Thresholds.Fair},
		{"thresholds.poor", c.Thresholds.Poor},
	}
	for _, t := range thresholds {
		if t.value < minScore || t.value > maxScore {
			return invalidConfig(t.field, "must be between 0 and 100")
		}
	}
	if c.Thresholds.Excellent <= c.Thresholds.Good {
		return invalidConfig("thresholds.excellent", "must be greater than thresholds.good")
	}
	if c.Thresholds.Good <= c.Thresholds.Fair {
		return invalidConfig("thresholds.good", "must be greater than thresholds.fair")
	}
	if c.Thresholds.Fair < c.Thresholds.Poor {
		return invalidConfig("thresholds.fair", "must not be lower than thresholds.poor")
	}

	if c.Targets.MinWordCount < 0 {
		return invalidConfig("targets.minWordCount", "must not be negative")
	}
	if c.Targets.MaxWordCount < 0 {
		return invalidConfig("targets.maxWordCount", "must not be negative")
	}
	if c.Targets.MaxWordCount > 0 && c.Targets.MaxWordCount < c.Targets.MinWordCount {
		return invalidConfig("targets.maxWordCount", "must not be lower than targets.minWordCount")
	}
	if c.Targets.IdealSentenceLength < 0 {
		return invalidConfig("targets.idealSentenceLength", "must not be negative")
	}
	if c.Targets.TargetKeywordDensity < 0 || c.Targets.TargetKeywordDensity > 100 {
		return invalidConfig("targets.targetKeywordDensity", "must be between 0 and 100")
	}

	switch c.Extractor {
	case ExtractorPattern, ExtractorDOM:
	default:
		return invalidConfig("extractor", "must be one of: pattern, dom")
	}
	return nil
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexAny(domain, "/:"); i >= 0 {
		domain = domain[:i]
	}
	return strings.TrimPrefix(domain, "www.")
}
