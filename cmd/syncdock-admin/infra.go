package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/seatrove/syncdock/config"
	"github.com/seatrove/syncdock/internal/bootstrap"
)

// storeConns holds the backend connections a command session owns. Only the
// handle matching the configured backend is populated.
type storeConns struct {
	db          *sql.DB
	redisClient redis.UniversalClient
}

// connectStore dials the backend named by the store configuration. Commands
// never need both backends at once, so the other handle stays nil.
func connectStore(logger *slog.Logger, cfg *config.AppConfig) (storeConns, error) {
	backend, err := cfg.Store.GetBackend()
	if err != nil {
		return storeConns{}, err
	}

	switch backend {
	case config.StoreBackendPostgres:
		db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return storeConns{}, fmt.Errorf("connect db: %w", err)
		}
		return storeConns{db: db}, nil
	case config.StoreBackendRedis:
		client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return storeConns{}, fmt.Errorf("connect redis: %w", err)
		}
		return storeConns{redisClient: client}, nil
	default:
		return storeConns{}, fmt.Errorf("unsupported store backend %q", backend)
	}
}

func (c storeConns) Close() error {
	var closeErr error
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// readJSONDocument loads a JSON payload from a file path, or from stdin when
// the path is "-". The payload is syntax-checked but not decoded.
func readJSONDocument(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return writef(os.Stdout, "%s\n", b)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
