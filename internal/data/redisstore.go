package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data/docmatch"
)

// updateRetries bounds the optimistic WATCH/MULTI retry loop for merges.
const updateRetries = 3

// RedisStoreOptions groups dependencies for RedisStore.
type RedisStoreOptions struct {
	Client    redis.UniversalClient // Required: redis client
	KeyPrefix string                // Optional: defaults to "syncdock"
	Logger    *slog.Logger          // Optional: structured logger
}

// RedisStore implements core.DocumentStore on Redis. Each index holds a meta
// marker written by Provision, a set of document ids, and one key per
// document body. Redis has no secondary indexes, so Search loads the index's
// documents and filters them in process with docmatch. Writes are immediately
// visible, so the refresh policy is accepted but ignored.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisStore constructs a new RedisStore.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "syncdock"
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "redis_store")
	}

	return &RedisStore{client: opts.Client, prefix: prefix, logger: logger}, nil
}

func (s *RedisStore) metaKey(index string) string {
	return fmt.Sprintf("%s:%s:meta", s.prefix, index)
}

func (s *RedisStore) idsKey(index string) string {
	return fmt.Sprintf("%s:%s:ids", s.prefix, index)
}

func (s *RedisStore) docKey(index, id string) string {
	return fmt.Sprintf("%s:%s:doc:%s", s.prefix, index, id)
}

// Provision writes the meta marker for each index name. Without the marker,
// an index is indistinguishable from one that never existed, which is exactly
// the ErrIndexNotFound signal the rest of the system relies on.
func (s *RedisStore) Provision(ctx context.Context, indices ...string) error {
	for _, index := range indices {
		if err := s.client.Set(ctx, s.metaKey(index), "provisioned", 0).Err(); err != nil {
			return fmt.Errorf("redis provision %s: %w", index, err)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "document store provisioned", "indices", indices)
	}
	return nil
}

// requireIndex fails with the index sentinel when the meta marker is absent.
func (s *RedisStore) requireIndex(ctx context.Context, index string) error {
	n, err := s.client.Exists(ctx, s.metaKey(index)).Result()
	if err != nil {
		return fmt.Errorf("redis exists: %w", err)
	}
	if n == 0 {
		return core.ErrIndexNotFound
	}
	return nil
}

// Get fetches one document by id.
func (s *RedisStore) Get(ctx context.Context, index, id string) (*core.Document, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, s.docKey(index, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrDocumentMissing
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeDocument(id, raw)
}

// Index creates or fully replaces a document and returns its id. An empty id
// gets a store-assigned UUID.
func (s *RedisStore) Index(ctx context.Context, params core.IndexParams) (string, error) {
	if err := s.requireIndex(ctx, params.Index); err != nil {
		return "", err
	}

	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(params.Index, id), params.Body, 0)
		pipe.SAdd(ctx, s.idsKey(params.Index), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis index: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "document indexed", "index", params.Index, "id", id)
	}
	return id, nil
}

// Update merges the given top-level fields into an existing document. The
// read-merge-write runs under WATCH so a concurrent writer restarts the
// attempt instead of being silently overwritten.
func (s *RedisStore) Update(ctx context.Context, params core.UpdateParams) error {
	if err := s.requireIndex(ctx, params.Index); err != nil {
		return err
	}

	key := s.docKey(params.Index, params.ID)
	merge := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return core.ErrDocumentMissing
			}
			return fmt.Errorf("redis get: %w", err)
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode document %s: %w", params.ID, err)
		}
		for field, value := range params.Fields {
			doc[field] = value
		}
		merged, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", params.ID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, merged, 0)
			return nil
		})
		return err
	}

	var err error
	for range updateRetries {
		err = s.client.Watch(ctx, merge, key)
		if err == nil {
			if s.logger != nil {
				s.logger.DebugContext(ctx, "document updated", "index", params.Index, "id", params.ID)
			}
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis update %s: %w", params.ID, err)
}

// Delete removes a document by id.
func (s *RedisStore) Delete(ctx context.Context, params core.DeleteParams) error {
	if err := s.requireIndex(ctx, params.Index); err != nil {
		return err
	}

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.docKey(params.Index, params.ID))
		pipe.SRem(ctx, s.idsKey(params.Index), params.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if del.Val() == 0 {
		return core.ErrDocumentMissing
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "document deleted", "index", params.Index, "id", params.ID)
	}
	return nil
}

// Search runs a term-conjunction (or match-all) query with sort and offset
// pagination by scanning the index's documents and filtering in process.
func (s *RedisStore) Search(ctx context.Context, index string, req core.SearchRequest) (*core.SearchResult, error) {
	if err := s.requireIndex(ctx, index); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, s.idsKey(index)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return &core.SearchResult{Hits: []core.Document{}, Total: 0}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.docKey(index, id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	matches := make([]core.Document, 0, len(values))
	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			// Id set and doc key can drift when a delete races the scan.
			continue
		}
		doc, err := decodeDocument(ids[i], []byte(body))
		if err != nil {
			return nil, err
		}
		if docmatch.Matches(doc.Fields, req.Query) {
			matches = append(matches, *doc)
		}
	}

	docmatch.SortHits(matches, req.Sort)
	page := docmatch.Page(matches, req.From, req.Size)

	return &core.SearchResult{Hits: page, Total: int64(len(matches))}, nil
}

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Password: "", // No password by default
		DB:       0,  // Default DB
	}
}

// NewRedisClient creates a new Redis client with the given configuration.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
