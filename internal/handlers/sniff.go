package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/database"
	"github.com/kosarica/dialect-service/internal/sample"
	"github.com/kosarica/dialect-service/internal/sniffer"
	"github.com/kosarica/dialect-service/internal/storage"
	"github.com/kosarica/dialect-service/internal/telemetry"
)

// SniffRequest selects the sample and tunes the engine.
// JSON bodies carry text or url; uploads pass the options as query parameters.
type SniffRequest struct {
	Text       string `json:"text,omitempty" form:"-"`
	URL        string `json:"url,omitempty" form:"url"`
	Encoding   string `json:"encoding,omitempty" form:"encoding"`
	Entry      string `json:"entry,omitempty" form:"entry"`
	SampleSize int    `json:"sampleSize,omitempty" form:"sampleSize" binding:"min=-1"`
	Ranking    string `json:"ranking,omitempty" form:"ranking" binding:"omitempty,oneof=lowest second"`
	Candidates string `json:"candidates,omitempty" form:"candidates"`
}

// customEngine reports whether the request overrides the engine configuration
func (r SniffRequest) customEngine() bool {
	return r.SampleSize != 0 || r.Ranking != "" || r.Candidates != ""
}

// SniffResponse is the inferred dialect together with how it was reached
type SniffResponse struct {
	Report   sniffer.Report `json:"report"`
	Checksum string         `json:"checksum"`
	Input    string         `json:"input"`
	Cached   bool           `json:"cached"`
}

// errBadRequest marks client errors found while building the sample provider
var errBadRequest = errors.New("bad request")

// SniffDialect infers the dialect of a sample
// POST /v1/sniff
// Accepts application/json ({"text": ...} or {"url": ...}), multipart/form-data
// with a "file" field, or the raw document as the request body.
func SniffDialect(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "dialect.sniff")
	defer span.End()

	req, provider, input, err := sniffProvider(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeInputError(c, err)
		return
	}
	sniffRequests.WithLabelValues(input).Inc()
	span.SetAttributes(attribute.String("dialect.input", input))

	engine, err := engineFor(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	text, err := provider.ReadSample(ctx, engine.Config().SampleSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeSampleError(c, err)
		return
	}
	encoding := sample.EncodingOf(provider)
	checksum := resultChecksum(text, encoding)
	span.SetAttributes(attribute.String("dialect.checksum", checksum))

	cacheable := deps.Store != nil && !req.customEngine()
	if cacheable {
		cached, err := deps.Store.GetSniffResult(ctx, checksum)
		switch {
		case err == nil:
			cacheLookups.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("dialect.cached", true))
			c.JSON(http.StatusOK, SniffResponse{
				Report: sniffer.Report{
					Dialect:         cached.Dialect,
					DelimiterSource: sniffer.DelimiterSource(cached.DelimiterSource),
					Adjacency:       cached.Adjacency,
					Tied:            cached.Tied,
					SampleSize:      cached.SampleSize,
				},
				Checksum: checksum,
				Input:    input,
				Cached:   true,
			})
			return
		case errors.Is(err, database.ErrNotFound):
			cacheLookups.WithLabelValues("miss").Inc()
		default:
			cacheLookups.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("checksum", checksum).Msg("Result cache lookup failed")
		}
	}

	report, err := engine.InferDecoded(text, encoding)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeSniffError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("dialect.delimiter", string(report.Dialect.Delimiter)),
		attribute.String("dialect.delimiter_source", string(report.DelimiterSource)),
	)
	telemetry.RecordInference(ctx, input, string(report.DelimiterSource), report.SampleSize)

	if cacheable {
		result := &database.SniffResult{
			Checksum:        checksum,
			Source:          input,
			SourceURL:       optional(req.URL),
			Encoding:        optional(report.Dialect.Encoding),
			DelimiterSource: string(report.DelimiterSource),
			Adjacency:       report.Adjacency,
			Tied:            report.Tied,
			Dialect:         report.Dialect,
			SampleSize:      report.SampleSize,
		}
		if err := deps.Store.SaveSniffResult(ctx, result); err != nil {
			log.Warn().Err(err).Str("checksum", checksum).Msg("Failed to cache sniff result")
		}
	}

	if deps.Archive != nil {
		meta := storage.Metadata{
			ContentType: "text/plain; charset=utf-8",
			Source:      input,
			SourceURL:   req.URL,
			Encoding:    report.Dialect.Encoding,
		}
		if _, err := storage.ArchiveSample(ctx, deps.Archive, []byte(text), report, meta); err != nil {
			archiveFailures.Inc()
			log.Warn().Err(err).Str("checksum", checksum).Msg("Failed to archive sample")
		}
	}

	c.JSON(http.StatusOK, SniffResponse{
		Report:   report,
		Checksum: checksum,
		Input:    input,
	})
}

// resultChecksum keys a cached result by the decoded sample and the encoding it was decoded from
func resultChecksum(text, encoding string) string {
	return storage.ComputeChecksum([]byte(encoding + "\x00" + text))
}

// sniffProvider builds the sample provider for the request
func sniffProvider(c *gin.Context) (SniffRequest, sample.Provider, string, error) {
	var req SniffRequest
	contentType := c.ContentType()

	if contentType == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
		switch {
		case req.Text != "" && req.URL != "":
			return req, nil, "", fmt.Errorf("%w: text and url are mutually exclusive", errBadRequest)
		case req.Text != "":
			return req, sample.String(req.Text), "text", nil
		case req.URL != "":
			if err := validateURL(req.URL); err != nil {
				return req, nil, "", err
			}
			return req, &sample.HTTP{Client: deps.Fetcher, URL: req.URL, Encoding: charset.Encoding(req.Encoding)}, "url", nil
		default:
			return req, nil, "", fmt.Errorf("%w: text or url is required", errBadRequest)
		}
	}

	if err := c.ShouldBindQuery(&req); err != nil {
		return req, nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	raw, err := readUpload(c, contentType)
	if err != nil {
		return req, nil, "", err
	}
	enc := charset.Encoding(req.Encoding)
	if sample.IsZip(raw) {
		z := sample.NewZipBytes(raw)
		z.Entry = req.Entry
		z.Encoding = enc
		return req, z, "zip", nil
	}
	return req, &sample.Bytes{Content: raw, Encoding: enc}, "upload", nil
}

// readUpload reads the multipart "file" field or the whole body
func readUpload(c *gin.Context, contentType string) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, deps.MaxBodyBytes)

	var body io.Reader = c.Request.Body
	if contentType == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: file: %v", errBadRequest, err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		body = f
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", errBadRequest)
	}
	return raw, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL", errBadRequest)
	}
	return nil
}

// engineFor returns the shared engine or one tuned by the request
func engineFor(req SniffRequest) (*sniffer.Engine, error) {
	if !req.customEngine() {
		return deps.Engine, nil
	}
	cfg := deps.Engine.Config()
	if req.SampleSize != 0 {
		cfg.SampleSize = req.SampleSize
	}
	if req.Ranking != "" {
		ranking, err := sniffer.ParseRanking(req.Ranking)
		if err != nil {
			return nil, err
		}
		cfg.Ranking = ranking
	}
	if req.Candidates != "" {
		cfg.Candidates = []rune(req.Candidates)
	}
	return sniffer.NewEngine(cfg), nil
}

func writeInputError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)})
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func writeSampleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sample.ErrNoSample):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Signal: string(sniffer.SignalSample)})
	case errors.Is(err, charset.ErrUnsupportedEncoding):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
}

func writeSniffError(c *gin.Context, err error) {
	var sniffErr *sniffer.SniffError
	if errors.As(err, &sniffErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Signal: string(sniffErr.Signal)})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
