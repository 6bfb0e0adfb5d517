package analyzer

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/seo-optimizer/content-quality/logging"
)

// Analyzer evaluates content quality. It holds no per-call state and is safe
// for concurrent use once constructed.
type Analyzer struct {
	logger    logging.Logger
	extractor Extractor
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for per-evaluation debug output.
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithExtractor forces an extractor regardless of Config.Extractor.
func WithExtractor(e Extractor) Option {
	return func(a *Analyzer) {
		a.extractor = e
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAnalyzer = New()

// Evaluate runs the default Analyzer.
func Evaluate(document string, keywords []string, cfg *Config) (*Evaluation, error) {
	return defaultAnalyzer.Evaluate(document, keywords, cfg)
}

// Evaluate scores document against keywords. The first keyword is the primary
// one. A nil cfg uses DefaultConfig. The result is either complete or nil with
// an error; it is never partially filled.
func (a *Analyzer) Evaluate(document string, keywords []string, cfg *Config) (ev *Evaluation, err error) {
	if strings.TrimSpace(document) == "" {
		return nil, ErrEmptyDocument
	}
	effective := cfg.WithDefaults()
	if err := effective.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Evaluation panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			ev, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	facts := a.extractorFor(effective).Extract(document, effective)
	ec := newEvalContext(document, facts, keywords, effective)

	ev = &Evaluation{
		SEO:         evaluateSEO(ec),
		Readability: evaluateReadability(ec),
		Content:     evaluateContent(ec),
		Technical:   evaluateTechnical(ec),
	}
	ev.OverallScore = overallScore(effective.Weights,
		ev.SEO.Score, ev.Readability.Score, ev.Content.Score, ev.Technical.Score)
	ev.Category = classify(ev.OverallScore, effective.Thresholds)
	ev.Recommendations = recommend(ev)
	ev.Summary = summarize(ev)

	a.logger.Debug("Evaluation complete",
		logging.Int("overall", ev.OverallScore),
		logging.String("category", string(ev.Category)),
		logging.Int("seo", ev.SEO.Score),
		logging.Int("readability", ev.Readability.Score),
		logging.Int("content", ev.Content.Score),
		logging.Int("technical", ev.Technical.Score),
		logging.Int("recommendations", len(ev.Recommendations)),
		logging.String("extractor", effective.Extractor),
	)
	return ev, nil
}

// Extract returns the facts the configured extractor reads from document.
func (a *Analyzer) Extract(document string, cfg *Config) *Facts {
	effective := cfg.WithDefaults()
	return a.extractorFor(effective).Extract(document, effective)
}

func (a *Analyzer) extractorFor(cfg Config) Extractor {
	if a.extractor != nil {
		return a.extractor
	}
	if cfg.Extractor == ExtractorDOM {
		return DOMExtractor{}
	}
	return PatternExtractor{}
}
