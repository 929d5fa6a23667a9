package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/dialect-service/internal/database"
	khttp "github.com/kosarica/dialect-service/internal/http"
	"github.com/kosarica/dialect-service/internal/sniffer"
	"github.com/kosarica/dialect-service/internal/storage"
)

const (
	defaultMaxBodyBytes  = 10 << 20
	defaultFetchMaxBytes = 1 << 20
)

// ResultStore caches inferred dialects by sample checksum
type ResultStore interface {
	SaveSniffResult(ctx context.Context, result *database.SniffResult) error
	GetSniffResult(ctx context.Context, checksum string) (*database.SniffResult, error)
	ListSniffResults(ctx context.Context, limit, offset int) ([]database.SniffResult, error)
	DeleteSniffResult(ctx context.Context, checksum string) error
}

// Dependencies are the collaborators shared by all handlers.
// Store and Archive are optional.
type Dependencies struct {
	Engine        *sniffer.Engine
	Store         ResultStore
	Archive       storage.Storage
	Fetcher       *khttp.Client
	MaxBodyBytes  int64
	FetchMaxBytes int64
	// DatabaseStatus reports the health of the result store; nil means not configured
	DatabaseStatus func(ctx context.Context) error
}

var deps = Dependencies{
	Engine:        sniffer.NewEngine(sniffer.DefaultConfig()),
	Fetcher:       khttp.NewClientDefault(),
	MaxBodyBytes:  defaultMaxBodyBytes,
	FetchMaxBytes: defaultFetchMaxBytes,
}

// Init installs the handler dependencies; zero fields take defaults
func Init(d Dependencies) {
	if d.Engine == nil {
		d.Engine = sniffer.NewEngine(sniffer.DefaultConfig())
	}
	if d.Fetcher == nil {
		d.Fetcher = khttp.NewClientDefault()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = defaultMaxBodyBytes
	}
	if d.FetchMaxBytes <= 0 {
		d.FetchMaxBytes = defaultFetchMaxBytes
	}
	deps = d
}

// RegisterRoutes mounts the v1 API on r
func RegisterRoutes(r gin.IRouter) {
	r.POST("/sniff", SniffDialect)
	r.POST("/records", ReadRecords)

	r.GET("/flavors", ListFlavors)
	r.GET("/flavors/:name", GetFlavor)

	results := r.Group("/results")
	{
		results.GET("", ListResults)
		results.GET("/:checksum", GetResult)
		results.DELETE("/:checksum", DeleteResult)
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	// Signal names the dialect parameter that could not be sniffed
	Signal string `json:"signal,omitempty"`
}
