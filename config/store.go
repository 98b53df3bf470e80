package config

import (
	"errors"
	"fmt"
	"strings"
)

// StoreBackend represents the available document store backends.
type StoreBackend string

const (
	// StoreBackendPostgres persists documents in PostgreSQL JSONB tables.
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendRedis persists documents in Redis keyspaces.
	StoreBackendRedis StoreBackend = "redis"
)

// ValidStoreBackends returns all valid store backend names.
func ValidStoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendPostgres, StoreBackendRedis}
}

// ParseStoreBackend parses a backend name. It validates the name against the
// known backends and returns an error for anything else.
func ParseStoreBackend(value string) (StoreBackend, error) {
	backend := StoreBackend(strings.ToLower(strings.TrimSpace(value)))
	switch backend {
	case StoreBackendPostgres, StoreBackendRedis:
		return backend, nil
	case StoreBackend(""):
		return "", errors.New("a store backend must be specified")
	default:
		return "", fmt.Errorf("invalid store backend: %q (valid options: postgres, redis)", value)
	}
}

// StoreConfig contains document store configuration.
type StoreConfig struct {
	// Backend selects the document store implementation.
	Backend string `env:"STORE_BACKEND" envDefault:"postgres"`

	// ConnectorIndex is the index connector documents are stored in.
	ConnectorIndex string `env:"STORE_CONNECTOR_INDEX" envDefault:"connectors"`

	// SyncJobIndex is the index sync-job documents are stored in.
	SyncJobIndex string `env:"STORE_SYNC_JOB_INDEX" envDefault:"connector_sync_jobs"`

	// KeyPrefix namespaces every key written by the Redis backend.
	KeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"syncdock"`

	// ProvisionOnStart controls whether the configured indices are
	// provisioned automatically during startup.
	ProvisionOnStart bool `env:"STORE_PROVISION_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to store configuration values.
func (s *StoreConfig) Sanitize() {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))

	s.ConnectorIndex = strings.TrimSpace(s.ConnectorIndex)
	if s.ConnectorIndex == "" {
		s.ConnectorIndex = "connectors"
	}

	s.SyncJobIndex = strings.TrimSpace(s.SyncJobIndex)
	if s.SyncJobIndex == "" {
		s.SyncJobIndex = "connector_sync_jobs"
	}

	s.KeyPrefix = strings.TrimSpace(s.KeyPrefix)
	if s.KeyPrefix == "" {
		s.KeyPrefix = "syncdock"
	}
}

// GetBackend returns the validated store backend.
func (s *StoreConfig) GetBackend() (StoreBackend, error) {
	return ParseStoreBackend(s.Backend)
}

// Indices returns the configured index names in provisioning order.
func (s *StoreConfig) Indices() []string {
	return []string{s.ConnectorIndex, s.SyncJobIndex}
}
