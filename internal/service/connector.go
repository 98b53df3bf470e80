package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/domain/configuration"
	"github.com/seatrove/syncdock/internal/domain/model"
	apperrors "github.com/seatrove/syncdock/internal/errors"
)

// DefaultConnectorIndex is the document index connectors are stored in.
const DefaultConnectorIndex = "connectors"

// ConnectorServiceOptions groups dependencies for ConnectorService.
type ConnectorServiceOptions struct {
	Store  core.DocumentStore // Required: document store holding connectors
	Index  string             // Optional: connector index name
	Logger *slog.Logger       // Optional: structured logger
}

// ConnectorService provides business logic for connector definitions: the
// documents sync jobs are spawned from. It is the ConnectorLookup used by
// SyncJobService.
type ConnectorService struct {
	store  core.DocumentStore
	index  string
	logger *slog.Logger
}

// NewConnectorService constructs a new ConnectorService.
func NewConnectorService(opts ConnectorServiceOptions) (*ConnectorService, error) {
	if opts.Store == nil {
		return nil, errors.New("DocumentStore is required")
	}

	index := opts.Index
	if index == "" {
		index = DefaultConnectorIndex
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "connector_service")
	}

	return &ConnectorService{
		store:  opts.Store,
		index:  index,
		logger: logger,
	}, nil
}

// MustNewConnectorService constructs a new ConnectorService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewConnectorService(opts ConnectorServiceOptions) *ConnectorService {
	svc, err := NewConnectorService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ConnectorService: %v", err))
	}
	return svc
}

// GetConnector fetches a connector by id.
func (s *ConnectorService) GetConnector(ctx context.Context, connectorID string) (*model.Connector, error) {
	if strings.TrimSpace(connectorID) == "" {
		return nil, apperrors.Validation("connector id is required")
	}

	doc, err := s.store.Get(ctx, s.index, connectorID)
	if err != nil {
		return nil, s.connectorStoreErr(err, connectorID)
	}

	connector, err := model.ParseConnector(doc.ID, doc.Raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode connector")
	}
	return connector, nil
}

// PutConnector stores a connector definition, replacing any existing document
// with the same id. An empty id lets the store assign one; either way the
// effective id is returned. A carried configuration must be a valid schema.
func (s *ConnectorService) PutConnector(ctx context.Context, connector *model.Connector) (string, error) {
	if connector == nil {
		return "", apperrors.Validation("connector is required")
	}
	if connector.Status != "" && !connector.Status.Valid() {
		return "", apperrors.Validationf("invalid ConnectorStatus: %q", string(connector.Status))
	}
	if connector.Configuration != nil {
		if err := connector.Configuration.Validate(); err != nil {
			return "", apperrors.Validation(err.Error())
		}
	}

	stored := *connector
	stored.ID = ""
	if stored.Status == "" {
		stored.Status = model.ConnectorStatusCreated
	}

	body, err := json.Marshal(&stored)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode connector")
	}

	id, err := s.store.Index(ctx, core.IndexParams{
		Index:   s.index,
		ID:      connector.ID,
		Body:    body,
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		if core.IsNotFound(err) {
			return "", apperrors.NotFoundFrom(err, "connector index [%s] not found", s.index)
		}
		return "", apperrors.MapStoreError(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "connector stored", "id", id, "service_type", stored.ServiceType)
	}
	return id, nil
}

// UpdateConfiguration validates raw as a configuration schema and writes it
// onto the connector, moving its status to configured. The decoded schema is
// returned so callers can show the registered field set.
func (s *ConnectorService) UpdateConfiguration(
	ctx context.Context,
	connectorID string,
	raw json.RawMessage,
) (configuration.Schema, error) {
	if strings.TrimSpace(connectorID) == "" {
		return nil, apperrors.Validation("connector id is required")
	}

	schema, err := configuration.DecodeSchema(raw)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	err = s.store.Update(ctx, core.UpdateParams{
		Index: s.index,
		ID:    connectorID,
		Fields: map[string]any{
			"configuration": schema,
			"status":        model.ConnectorStatusConfigured,
		},
		Refresh: core.RefreshImmediate,
	})
	if err != nil {
		return nil, s.connectorStoreErr(err, connectorID)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "connector configuration updated", "id", connectorID, "fields", len(schema))
	}
	return schema, nil
}

// connectorStoreErr translates a store failure from a by-id connector
// operation into the API error taxonomy.
func (s *ConnectorService) connectorStoreErr(err error, connectorID string) error {
	if core.IsNotFound(err) {
		return apperrors.NotFoundFrom(err, "Connector with id '%s' does not exist.", connectorID)
	}
	return apperrors.MapStoreError(err)
}
