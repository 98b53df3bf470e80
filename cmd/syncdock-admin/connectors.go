package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/seatrove/syncdock/internal/bootstrap"
	"github.com/seatrove/syncdock/internal/domain/configuration"
	"github.com/seatrove/syncdock/internal/domain/model"
)

type putConnectorOptions struct {
	ID          string
	File        string
	IndexName   string
	Language    string
	ServiceType string
	Status      string
	Timeout     time.Duration
}

type getConnectorOptions struct {
	ID      string
	Timeout time.Duration
}

type setConfigurationOptions struct {
	ID      string
	File    string
	Timeout time.Duration
}

func runPutConnector(cmdCtx *commandContext, args []string) error {
	opts, err := parsePutConnectorFlags(args)
	if err != nil {
		return err
	}

	connector, err := connectorFromOptions(&opts)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		id, putErr := svcs.Connectors.PutConnector(ctx, connector)
		if putErr != nil {
			return putErr
		}

		if printErr := writef(os.Stdout, "Stored connector %s\n", id); printErr != nil {
			return fmt.Errorf("print connector id: %w", printErr)
		}
		return nil
	})
}

func runGetConnector(cmdCtx *commandContext, args []string) error {
	opts, err := parseGetConnectorFlags(args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		connector, getErr := svcs.Connectors.GetConnector(ctx, opts.ID)
		if getErr != nil {
			return getErr
		}

		if printErr := printJSON(connector); printErr != nil {
			return fmt.Errorf("print connector: %w", printErr)
		}
		return nil
	})
}

func runSetConfiguration(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetConfigurationFlags(args)
	if err != nil {
		return err
	}

	raw, err := readJSONDocument(opts.File)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		schema, updateErr := svcs.Connectors.UpdateConfiguration(ctx, opts.ID, raw)
		if updateErr != nil {
			return updateErr
		}

		return printSchemaSummary(opts.ID, schema)
	})
}

// connectorFromOptions builds the connector document to store: decoded from
// the --file payload when given, otherwise assembled from field flags. An
// explicit --id always wins over an id carried in the payload.
func connectorFromOptions(opts *putConnectorOptions) (*model.Connector, error) {
	if opts.File != "" {
		raw, err := readJSONDocument(opts.File)
		if err != nil {
			return nil, err
		}

		var connector model.Connector
		if err := json.Unmarshal(raw, &connector); err != nil {
			return nil, fmt.Errorf("decode connector document: %w", err)
		}
		if opts.ID != "" {
			connector.ID = opts.ID
		}
		return &connector, nil
	}

	connector := &model.Connector{
		ID:          opts.ID,
		IndexName:   opts.IndexName,
		Language:    opts.Language,
		ServiceType: opts.ServiceType,
	}
	if opts.Status != "" {
		if err := connector.Status.UnmarshalText([]byte(opts.Status)); err != nil {
			return nil, err
		}
	}
	return connector, nil
}

func printSchemaSummary(connectorID string, schema configuration.Schema) error {
	if err := writef(os.Stdout, "Registered configuration for connector %s (%d fields)\n", connectorID, len(schema)); err != nil {
		return fmt.Errorf("print configuration summary: %w", err)
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writef(os.Stdout, "  - %s (%s)\n", name, schema[name].Type); err != nil {
			return fmt.Errorf("print configuration field: %w", err)
		}
	}
	return nil
}

func parsePutConnectorFlags(args []string) (putConnectorOptions, error) {
	fs := flag.NewFlagSet("put-connector", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := putConnectorOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ID, "id", "", "Connector id (empty lets the store assign one)")
	fs.StringVar(&opts.File, "file", "", "Path to a connector JSON document, or - for stdin")
	fs.StringVar(&opts.IndexName, "index-name", "", "Target index documents are synced into")
	fs.StringVar(&opts.Language, "language", "", "Analyzer language code")
	fs.StringVar(&opts.ServiceType, "service-type", "", "Data source type (e.g. mongodb, s3)")
	fs.StringVar(&opts.Status, "status", "", "Connector status (created|needs_configuration|configured|connected|error)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return putConnectorOptions{}, err
	}

	normalizePutConnectorOptions(&opts)
	if err := validatePutConnectorOptions(&opts); err != nil {
		return putConnectorOptions{}, err
	}

	return opts, nil
}

func normalizePutConnectorOptions(opts *putConnectorOptions) {
	opts.ID = strings.TrimSpace(opts.ID)
	opts.File = strings.TrimSpace(opts.File)
	opts.IndexName = strings.TrimSpace(opts.IndexName)
	opts.Language = strings.TrimSpace(opts.Language)
	opts.ServiceType = strings.TrimSpace(opts.ServiceType)
	opts.Status = strings.ToLower(strings.TrimSpace(opts.Status))
}

func validatePutConnectorOptions(opts *putConnectorOptions) error {
	if opts.File != "" {
		if opts.IndexName != "" || opts.Language != "" || opts.ServiceType != "" || opts.Status != "" {
			return errors.New("--file and field flags are mutually exclusive")
		}
	}
	if opts.Timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}

func parseGetConnectorFlags(args []string) (getConnectorOptions, error) {
	fs := flag.NewFlagSet("get-connector", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := getConnectorOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ID, "id", "", "Connector id")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return getConnectorOptions{}, err
	}

	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return getConnectorOptions{}, errors.New("--id is required")
	}
	if opts.Timeout <= 0 {
		return getConnectorOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseSetConfigurationFlags(args []string) (setConfigurationOptions, error) {
	fs := flag.NewFlagSet("set-configuration", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := setConfigurationOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ID, "id", "", "Connector id")
	fs.StringVar(&opts.File, "file", "", "Path to a configuration schema JSON document, or - for stdin")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return setConfigurationOptions{}, err
	}

	opts.ID = strings.TrimSpace(opts.ID)
	opts.File = strings.TrimSpace(opts.File)
	if opts.ID == "" {
		return setConfigurationOptions{}, errors.New("--id is required")
	}
	if opts.File == "" {
		return setConfigurationOptions{}, errors.New("--file is required")
	}
	if opts.Timeout <= 0 {
		return setConfigurationOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
