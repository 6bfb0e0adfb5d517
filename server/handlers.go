package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/cache"
	"github.com/seo-optimizer/content-quality/fetch"
	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/middleware"
	"github.com/seo-optimizer/content-quality/report"
)

// jsonOverhead is the body allowance on top of the document limit for the
// keywords, config and JSON escaping.
const jsonOverhead = 64 << 10

var (
	errDocumentTooLarge = errors.New("document too large")
	errBadRequest       = errors.New("bad request")
	errFetchFailed      = errors.New("fetch failed")
)

type evaluateRequest struct {
	Content  string          `json:"content"`
	URL      string          `json:"url"`
	Keywords []string        `json:"keywords"`
	Config   json.RawMessage `json:"config"`
}

type batchDocument struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

type batchRequest struct {
	Documents []batchDocument `json:"documents"`
	Config    json.RawMessage `json:"config"`
}

type batchItem struct {
	ID         string               `json:"id"`
	Evaluation *analyzer.Evaluation `json:"evaluation,omitempty"`
	Error      string               `json:"error,omitempty"`
}

type batchResponse struct {
	Results   []batchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) evaluate(c *gin.Context) {
	logger := s.requestLogger(c)
	logger.Info("Evaluate request received")

	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var req evaluateRequest
	if err := s.bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	hasContent := strings.TrimSpace(req.Content) != ""
	hasURL := strings.TrimSpace(req.URL) != ""
	if hasContent == hasURL {
		s.fail(c, fmt.Errorf("%w: provide exactly one of content or url", errBadRequest))
		return
	}

	// From here on failures count as failed evaluations.
	c.Set(middleware.EvaluationSourceKey, req.URL)

	document, source, baseDomain := req.Content, "", ""
	if hasURL {
		page, err := s.fetcher.Fetch(c.Request.Context(), req.URL)
		if err != nil {
			s.fail(c, classifyFetchError(err))
			return
		}
		document, source, baseDomain = page.Body, page.FinalURL, page.Host()
	} else if int64(len(document)) > s.cfg.Server.MaxDocumentBytes {
		s.fail(c, errDocumentTooLarge)
		return
	}
	c.Set(middleware.EvaluationSourceKey, source)

	cfg, err := s.evaluationConfig(req.Config, baseDomain)
	if err != nil {
		s.fail(c, err)
		return
	}

	ev, cached, err := s.evaluateCached(c, document, req.Keywords, cfg, sourceLabel(hasURL))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(middleware.EvaluationCategoryKey, string(ev.Category))
	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}

	logger.Info("Evaluation complete",
		logging.Int("overall_score", ev.OverallScore),
		logging.String("category", string(ev.Category)),
		logging.Bool("cached", cached),
	)

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, ev)
		return
	}
	s.render(c, format, report.NewSnapshot(source, req.Keywords, ev))
}

// evaluateCached consults the result cache before running the analyzer.
// Cache failures are logged and otherwise ignored.
func (s *Server) evaluateCached(c *gin.Context, document string, keywords []string, cfg analyzer.Config, source string) (*analyzer.Evaluation, bool, error) {
	ctx := c.Request.Context()
	key := cache.Key(document, keywords, cfg)

	ev, hit, err := s.cache.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("Cache lookup failed", logging.Error(err))
	}
	s.recordCacheLookup(hit)
	if hit {
		s.recordEvaluation(ev, source, 0)
		return ev, true, nil
	}

	start := time.Now()
	ev, err = s.analyzer.Evaluate(document, keywords, &cfg)
	if err != nil {
		return nil, false, err
	}
	s.recordEvaluation(ev, source, time.Since(start))

	if err := s.cache.Save(ctx, key, ev); err != nil {
		s.logger.Warn("Cache store failed", logging.Error(err))
	}
	return ev, false, nil
}

func (s *Server) evaluateBatch(c *gin.Context) {
	logger := s.requestLogger(c)

	var req batchRequest
	if err := s.bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if len(req.Documents) == 0 {
		s.fail(c, fmt.Errorf("%w: documents must not be empty", errBadRequest))
		return
	}
	if len(req.Documents) > s.cfg.Batch.MaxDocuments {
		s.fail(c, fmt.Errorf("%w: at most %d documents per batch", errBadRequest, s.cfg.Batch.MaxDocuments))
		return
	}

	// Counted as one evaluation request of inline content.
	c.Set(middleware.EvaluationSourceKey, "")

	cfg, err := s.evaluationConfig(req.Config, "")
	if err != nil {
		s.fail(c, err)
		return
	}

	logger.Info("Batch request received", logging.Int("documents", len(req.Documents)))
	s.metrics.BatchSize.Observe(float64(len(req.Documents)))

	resp := batchResponse{Results: make([]batchItem, len(req.Documents))}
	reqs := make([]analyzer.Request, 0, len(req.Documents))
	index := make([]int, 0, len(req.Documents))
	for i, doc := range req.Documents {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		resp.Results[i].ID = id
		if int64(len(doc.Content)) > s.cfg.Server.MaxDocumentBytes {
			resp.Results[i].Error = errDocumentTooLarge.Error()
			continue
		}
		reqs = append(reqs, analyzer.Request{ID: id, Document: doc.Content, Keywords: doc.Keywords, Config: &cfg})
		index = append(index, i)
	}

	start := time.Now()
	results := s.analyzer.EvaluateBatch(c.Request.Context(), reqs, s.cfg.Batch.Concurrency)
	elapsed := time.Since(start)

	for j, result := range results {
		item := &resp.Results[index[j]]
		if result.Err != nil {
			item.Error = result.Err.Error()
			s.recordFailure(result.Err)
			continue
		}
		item.Evaluation = result.Evaluation
		s.recordEvaluation(result.Evaluation, "batch", elapsed/time.Duration(len(results)))
	}
	for _, item := range resp.Results {
		if item.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) getStatistics(c *gin.Context) {
	summary := s.statistics.GetStatistics()
	if s.usage != nil {
		summary["usage"] = s.usage.GetCurrentStats()
		summary["months"] = s.usage.GetAllMonths()
	}
	c.JSON(http.StatusOK, summary)
}

// evaluationConfig decodes a partial config over the service defaults. The
// fetched page's host is the base domain unless the request names one.
func (s *Server) evaluationConfig(raw json.RawMessage, baseDomain string) (analyzer.Config, error) {
	cfg := s.cfg.Evaluation
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return analyzer.Config{}, fmt.Errorf("%w: config: %v", errBadRequest, err)
		}
	}
	if cfg.BaseDomain == "" {
		cfg.BaseDomain = baseDomain
	}

	effective := cfg.WithDefaults()
	if err := effective.Validate(); err != nil {
		return analyzer.Config{}, err
	}
	return effective, nil
}

func (s *Server) bindJSON(c *gin.Context, v any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxDocumentBytes+jsonOverhead)
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errDocumentTooLarge
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) render(c *gin.Context, format report.Format, snapshot *report.Snapshot) {
	var buf bytes.Buffer
	w, err := report.NewWriter(string(format), &buf)
	if err == nil {
		_, err = w.Write(snapshot)
	}
	if err != nil {
		s.fail(c, fmt.Errorf("%w: render report: %v", analyzer.ErrInternal, err))
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(c).Error("Evaluation failed", logging.Error(err))
	} else {
		s.requestLogger(c).Info("Request rejected", logging.Int("status", status), logging.Error(err))
	}
	if _, evaluating := c.Get(middleware.EvaluationSourceKey); evaluating || isEvaluationError(err) {
		s.recordFailure(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) requestLogger(c *gin.Context) logging.Logger {
	return s.logger.With(
		logging.String("request_id", c.GetString(middleware.RequestIDKey)),
		logging.String("client_ip", c.ClientIP()),
	)
}

func (s *Server) recordEvaluation(ev *analyzer.Evaluation, source string, elapsed time.Duration) {
	s.metrics.ObserveEvaluation(ev, source, elapsed)
	if s.usage != nil {
		s.usage.RecordEvaluation(string(ev.Category))
	}
}

func (s *Server) recordFailure(err error) {
	s.metrics.RecordError(errorReason(err))
	if s.usage != nil {
		s.usage.RecordFailure()
	}
}

func (s *Server) recordCacheLookup(hit bool) {
	s.metrics.RecordCacheLookup(hit)
	if s.usage != nil {
		s.usage.RecordCacheLookup(hit)
	}
}

func sourceLabel(fromURL bool) string {
	if fromURL {
		return "url"
	}
	return "content"
}

func classifyFetchError(err error) error {
	if errors.Is(err, fetch.ErrInvalidURL) || errors.Is(err, fetch.ErrBlockedAddress) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if errors.Is(err, fetch.ErrTooLarge) {
		return errDocumentTooLarge
	}
	return fmt.Errorf("%w: %v", errFetchFailed, err)
}

func isEvaluationError(err error) bool {
	return errors.Is(err, analyzer.ErrEmptyDocument) ||
		errors.Is(err, analyzer.ErrInvalidConfig) ||
		errors.Is(err, analyzer.ErrInternal)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, analyzer.ErrEmptyDocument),
		errors.Is(err, analyzer.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, errFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, analyzer.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, errDocumentTooLarge):
		return "too_large"
	case errors.Is(err, errFetchFailed):
		return "fetch"
	case errors.Is(err, errBadRequest):
		return "bad_request"
	default:
		return "internal"
	}
}
