package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by Status before Connect succeeded
var ErrNotConnected = errors.New("database not initialized")

var (
	pool   *pgxpool.Pool
	poolMu sync.RWMutex
)

// Options holds connection pool settings; zero values keep the pgx defaults
type Options struct {
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (o Options) apply(config *pgxpool.Config) {
	if o.MaxConnections > 0 {
		config.MaxConns = int32(o.MaxConnections)
	}
	if o.MinConnections > 0 {
		config.MinConns = int32(o.MinConnections)
	}
	if o.MaxConnLifetime > 0 {
		config.MaxConnLifetime = o.MaxConnLifetime
	}
	if o.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = o.MaxConnIdleTime
	}
	config.HealthCheckPeriod = time.Minute
}

// Connect opens the shared connection pool. Calling it again while
// connected is a no-op.
func Connect(ctx context.Context, connString string, opts Options) error {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		return nil
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("error parsing database config: %w", err)
	}
	opts.apply(config)

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	log.Debug().
		Int32("max_conns", config.MaxConns).
		Int32("min_conns", config.MinConns).
		Msg("Database pool opened")
	pool = p
	return nil
}

// Close closes the shared pool; Connect may be called again afterwards
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the shared pool, or nil before Connect
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the database
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}
	return p.Ping(ctx)
}

// Stats returns connection pool statistics, or nil before Connect
func Stats() *pgxpool.Stat {
	p := Pool()
	if p == nil {
		return nil
	}
	return p.Stat()
}

// ConnectAndMigrate connects the shared pool and creates the sniff result schema
func ConnectAndMigrate(ctx context.Context, connString string, opts Options) (*Store, error) {
	if err := Connect(ctx, connString, opts); err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, Pool()); err != nil {
		return nil, err
	}
	log.Info().Msg("Sniff result store ready")
	return NewStore(Pool()), nil
}
