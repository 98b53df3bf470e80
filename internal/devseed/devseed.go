// Package devseed populates a development store with demo connectors and
// sync jobs so every lifecycle operation has data to work against.
package devseed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/seatrove/syncdock/config"
	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/domain/configuration"
	"github.com/seatrove/syncdock/internal/domain/model"
	apperrors "github.com/seatrove/syncdock/internal/errors"
	"github.com/seatrove/syncdock/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Store      core.ManagedStore
	connectors *service.ConnectorService
	syncJobs   *service.SyncJobService
}

// NewServices constructs all required services for seeding over the provided store.
func NewServices(store core.ManagedStore, cfg config.StoreConfig) Services {
	connectors := service.MustNewConnectorService(service.ConnectorServiceOptions{
		Store: store,
		Index: cfg.ConnectorIndex,
	})
	syncJobs := service.MustNewSyncJobService(service.SyncJobServiceOptions{
		Store:      store,
		Connectors: connectors,
		Index:      cfg.SyncJobIndex,
	})

	return Services{
		Store:      store,
		connectors: connectors,
		syncJobs:   syncJobs,
	}
}

// Run executes the full development seeding workflow against the provided store.
// Connectors are keyed by fixed ids and skipped when present; sync jobs get
// store-assigned ids, so each run adds a fresh batch.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedConnectors(ctx, svcs.connectors, logger)
	failures += registerGithubConfiguration(ctx, svcs.connectors, logger)

	ids, err := seedSyncJobs(ctx, svcs.syncJobs, logger)
	if err != nil {
		return err
	}
	failures += demoLifecycle(ctx, svcs.syncJobs, ids, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedConnectors(ctx context.Context, svc *service.ConnectorService, logger *slog.Logger) int {
	failures := 0
	for _, connector := range defaultConnectorSeeds() {
		created, err := createConnector(ctx, svc, connector)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to create connector", "id", connector.ID, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			msg := "connector already exists"
			if created {
				msg = "created connector"
			}
			logger.InfoContext(ctx, msg, "id", connector.ID, "service_type", connector.ServiceType)
		}
	}

	return failures
}

func createConnector(ctx context.Context, svc *service.ConnectorService, connector *model.Connector) (bool, error) {
	if _, err := svc.GetConnector(ctx, connector.ID); err == nil {
		return false, nil
	} else if !apperrors.IsNotFound(err) {
		return false, err
	}

	if _, err := svc.PutConnector(ctx, connector); err != nil {
		return false, err
	}
	return true, nil
}

func defaultConnectorSeeds() []*model.Connector {
	return []*model.Connector{
		{
			ID:          "seed-mongo-catalog",
			IndexName:   "search-mongo-catalog",
			Language:    "en",
			ServiceType: "mongodb",
			Status:      model.ConnectorStatusConfigured,
			Pipeline: &model.IngestPipeline{
				ExtractBinaryContent: true,
				Name:                 "ent-search-generic-ingestion",
				ReduceWhitespace:     true,
			},
			Configuration: mongoConfiguration(),
		},
		{
			ID:            "seed-s3-archive",
			IndexName:     "search-s3-archive",
			Language:      "en",
			ServiceType:   "s3",
			Status:        model.ConnectorStatusConfigured,
			Configuration: s3Configuration(),
			Filtering: []model.ConnectorFiltering{
				{
					Domain: "DEFAULT",
					Active: json.RawMessage(
						`{"rules":[{"id":"exclude-tmp","field":"key","policy":"exclude","rule":"starts_with","value":"tmp/"}]}`,
					),
				},
			},
		},
		{
			// Configuration registered separately to exercise the update path.
			ID:          "seed-github-issues",
			IndexName:   "search-github-issues",
			ServiceType: "github",
			Status:      model.ConnectorStatusNeedsConfiguration,
		},
	}
}

func mongoConfiguration() configuration.Schema {
	return configuration.Schema{
		"host": {
			Type:           configuration.FieldTypeString,
			Display:        configuration.DisplayTextbox,
			Label:          "Server hostname",
			Order:          1,
			Required:       true,
			UIRestrictions: []string{},
			Validations:    configuration.Validations{},
			Value:          "mongo.dev.internal",
		},
		"port": {
			Type:           configuration.FieldTypeInteger,
			Display:        configuration.DisplayNumeric,
			Label:          "Server port",
			Order:          2,
			Required:       true,
			UIRestrictions: []string{},
			Validations: configuration.Validations{
				configuration.GreaterThan{Limit: 0},
				configuration.LessThan{Limit: 65536},
			},
			Value: 27017,
		},
		"database": {
			Type:           configuration.FieldTypeString,
			Display:        configuration.DisplayTextbox,
			Label:          "Database",
			Order:          3,
			Required:       true,
			UIRestrictions: []string{},
			Validations:    configuration.Validations{},
			Value:          "catalog",
		},
		"direct_connection": {
			Type:           configuration.FieldTypeBoolean,
			Display:        configuration.DisplayToggle,
			Label:          "Direct connection",
			Order:          4,
			UIRestrictions: []string{"advanced"},
			Validations:    configuration.Validations{},
			Value:          true,
		},
	}
}

func s3Configuration() configuration.Schema {
	return configuration.Schema{
		"buckets": {
			Type:           configuration.FieldTypeList,
			Display:        configuration.DisplayTextarea,
			Label:          "Bucket names",
			Order:          1,
			Required:       true,
			UIRestrictions: []string{},
			Validations: configuration.Validations{
				configuration.ListType{ElementType: "str"},
			},
			Value: []any{"archive-raw", "archive-curated"},
		},
		"region": {
			Type:           configuration.FieldTypeString,
			Display:        configuration.DisplayDropdown,
			Label:          "AWS region",
			Order:          2,
			Required:       true,
			UIRestrictions: []string{},
			Validations: configuration.Validations{
				configuration.IncludedIn{Values: []any{"us-east-1", "us-west-2", "eu-central-1"}},
			},
			Options: []configuration.SelectOption{
				{Label: "US East (N. Virginia)", Value: "us-east-1"},
				{Label: "US West (Oregon)", Value: "us-west-2"},
				{Label: "Europe (Frankfurt)", Value: "eu-central-1"},
			},
			Value: "us-east-1",
		},
		"prefix": {
			Type:           configuration.FieldTypeString,
			Display:        configuration.DisplayTextbox,
			Label:          "Key prefix",
			Order:          3,
			UIRestrictions: []string{"advanced"},
			Validations: configuration.Validations{
				configuration.Regex{Pattern: `^[\w/.-]*$`},
			},
			Value: "docs/",
		},
		"use_textract": {
			Type:           configuration.FieldTypeBoolean,
			Display:        configuration.DisplayToggle,
			Label:          "Extract text from scans",
			Order:          4,
			UIRestrictions: []string{},
			Validations:    configuration.Validations{},
			DependsOn: []configuration.Dependency{
				{Field: "region", Value: "us-east-1"},
			},
			Value: false,
		},
	}
}

const githubConfigurationJSON = `{
  "token": {
    "type": "str",
    "display": "textbox",
    "label": "Personal access token",
    "order": 1,
    "required": true,
    "sensitive": true,
    "ui_restrictions": [],
    "validations": []
  },
  "repository": {
    "type": "str",
    "display": "textbox",
    "label": "Repository",
    "order": 2,
    "required": true,
    "sensitive": false,
    "ui_restrictions": [],
    "validations": [
      {"type": "regex", "constraint": "^[\\w.-]+/[\\w.-]+$"}
    ]
  }
}`

func registerGithubConfiguration(ctx context.Context, svc *service.ConnectorService, logger *slog.Logger) int {
	const id = "seed-github-issues"

	schema, err := svc.UpdateConfiguration(ctx, id, json.RawMessage(githubConfigurationJSON))
	if err != nil {
		if logger != nil {
			logger.ErrorContext(ctx, "failed to register configuration", "id", id, "error", err)
		}
		return 1
	}

	if logger != nil {
		logger.InfoContext(ctx, "registered configuration", "id", id, "fields", len(schema))
	}
	return 0
}

type jobSeedSpec struct {
	connectorID string
	jobType     model.SyncJobType
	trigger     model.TriggerMethod
}

func defaultJobSeedSpecs() []jobSeedSpec {
	return []jobSeedSpec{
		{connectorID: "seed-mongo-catalog", jobType: model.SyncJobTypeFull, trigger: model.TriggerMethodOnDemand},
		{connectorID: "seed-mongo-catalog", jobType: model.SyncJobTypeIncremental, trigger: model.TriggerMethodScheduled},
		{connectorID: "seed-s3-archive", jobType: model.SyncJobTypeFull, trigger: model.TriggerMethodScheduled},
		{connectorID: "seed-s3-archive", jobType: model.SyncJobTypeAccessControl, trigger: model.TriggerMethodOnDemand},
		{connectorID: "seed-github-issues", jobType: model.SyncJobTypeFull, trigger: model.TriggerMethodOnDemand},
		{connectorID: "seed-github-issues", jobType: model.SyncJobTypeIncremental, trigger: model.TriggerMethodScheduled},
	}
}

// seedSyncJobs creates the demo jobs concurrently and returns their ids in
// spec order.
func seedSyncJobs(ctx context.Context, svc *service.SyncJobService, logger *slog.Logger) ([]string, error) {
	specs := defaultJobSeedSpecs()
	ids := make([]string, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			id, err := svc.Create(gctx, &model.CreateSyncJobRequest{
				ConnectorID:   spec.connectorID,
				JobType:       spec.jobType,
				TriggerMethod: spec.trigger,
			})
			if err != nil {
				return fmt.Errorf("create %s job for %s: %w", spec.jobType, spec.connectorID, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.InfoContext(ctx, "created sync jobs", "count", len(ids))
	}
	return ids, nil
}

// demoLifecycle walks a few of the fresh jobs through the lifecycle operations
// so listings show more than pending rows.
func demoLifecycle(ctx context.Context, svc *service.SyncJobService, ids []string, logger *slog.Logger) int {
	if len(ids) < 3 {
		return 0
	}

	total := int64(1500)
	steps := []struct {
		name string
		run  func() error
	}{
		{name: "check in", run: func() error { return svc.CheckIn(ctx, ids[0]) }},
		{name: "update stats", run: func() error {
			return svc.UpdateIngestionStats(ctx, &model.UpdateIngestionStatsRequest{
				JobID:                 ids[0],
				IndexedDocumentCount:  1204,
				IndexedDocumentVolume: 52428800,
				DeletedDocumentCount:  7,
				TotalDocumentCount:    &total,
			})
		}},
		{name: "cancel", run: func() error { return svc.Cancel(ctx, ids[1]) }},
		{name: "report error", run: func() error {
			return svc.ReportError(ctx, ids[2], "connector task crashed: out of memory")
		}},
	}

	failures := 0
	for _, step := range steps {
		if err := step.run(); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "lifecycle step failed", "step", step.name, "error", err)
			}
			failures++
		}
	}
	return failures
}
