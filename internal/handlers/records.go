package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/records"
	"github.com/kosarica/dialect-service/internal/sample"
	"github.com/kosarica/dialect-service/internal/telemetry"
)

const defaultRecordLimit = 100

// RecordsRequest asks for the records of a document.
// Without a dialect or flavor the dialect is sniffed first.
type RecordsRequest struct {
	Text    string           `json:"text,omitempty"`
	URL     string           `json:"url,omitempty"`
	Dialect *dialect.Dialect `json:"dialect,omitempty"`
	Flavor  string           `json:"flavor,omitempty"`
	Limit   int              `json:"limit,omitempty" binding:"min=0,max=10000"`
}

// RecordsResponse carries the parsed header and data records
type RecordsResponse struct {
	Dialect dialect.Dialect `json:"dialect"`
	Sniffed bool            `json:"sniffed"`
	Header  []string        `json:"header,omitempty"`
	Records [][]string      `json:"records"`
	// Truncated is set when the limit was reached or a remote document was cut short
	Truncated bool `json:"truncated"`
}

// ReadRecords splits a document into records
// POST /v1/records
func ReadRecords(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "dialect.records")
	defer span.End()

	var req RecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if (req.Text == "") == (req.URL == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "exactly one of text or url is required"})
		return
	}
	if req.Dialect != nil && req.Flavor != "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "dialect and flavor are mutually exclusive"})
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultRecordLimit
	}

	var (
		body      io.Reader
		provider  sample.Provider
		cut       bool
		forceUTF8 bool
	)
	if req.Text != "" {
		body = strings.NewReader(req.Text)
		provider = sample.String(req.Text)
		forceUTF8 = true
	} else {
		if err := validateURL(req.URL); err != nil {
			writeInputError(c, err)
			return
		}
		raw, err := deps.Fetcher.GetPrefix(ctx, req.URL, deps.FetchMaxBytes)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
			return
		}
		cut = int64(len(raw)) == deps.FetchMaxBytes
		decompressed, _, err := sample.Decompress(bytes.NewReader(raw))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
			return
		}
		body = decompressed
		provider = sample.NewBytes(raw)
	}

	d, sniffed, err := resolveDialect(c, req, provider)
	if err != nil {
		return
	}
	if forceUTF8 {
		if d, err = dialect.From(d).Encoding(string(charset.EncodingUTF8)).Build(); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}
	span.SetAttributes(attribute.Bool("dialect.sniffed", sniffed))

	reader, err := records.NewReader(body, d)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, dialect.ErrInvalidDialect) && !errors.Is(err, charset.ErrUnsupportedEncoding) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	header, err := reader.Header()
	if err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	out := RecordsResponse{Dialect: d, Sniffed: sniffed, Header: header, Records: [][]string{}, Truncated: cut}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: fmt.Sprintf("record %d: %v", reader.Record(), err)})
			return
		}
		if len(out.Records) == req.Limit {
			out.Truncated = true
			break
		}
		out.Records = append(out.Records, rec)
	}
	recordsServed.Observe(float64(len(out.Records)))

	c.JSON(http.StatusOK, out)
}

// resolveDialect picks the requested dialect or sniffs one; on error the
// response has already been written.
func resolveDialect(c *gin.Context, req RecordsRequest, provider sample.Provider) (dialect.Dialect, bool, error) {
	switch {
	case req.Dialect != nil:
		if err := req.Dialect.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return dialect.Dialect{}, false, err
		}
		return *req.Dialect, false, nil
	case req.Flavor != "":
		d, err := dialect.Lookup(req.Flavor)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return dialect.Dialect{}, false, err
		}
		return d, false, nil
	}

	report, err := deps.Engine.InferSample(c.Request.Context(), provider)
	if err != nil {
		writeSniffError(c, err)
		return dialect.Dialect{}, false, err
	}
	return report.Dialect, true, nil
}
