package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/seatrove/syncdock/config"
	"github.com/seatrove/syncdock/internal/bootstrap"
	"github.com/seatrove/syncdock/internal/devseed"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const (
	defaultStoreTimeout     = time.Minute
	defaultProvisionTimeout = 2 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"provision": {
			name:        "provision",
			description: "Create the configured document indices on the store backend",
			run:         runProvision,
		},
		"seed": {
			name:        "seed",
			description: "Provision indices and seed demo connectors and sync jobs",
			run:         runSeed,
		},
		"put-connector": {
			name:        "put-connector",
			description: "Create or replace a connector document",
			run:         runPutConnector,
		},
		"get-connector": {
			name:        "get-connector",
			description: "Fetch a connector by id and print it as JSON",
			run:         runGetConnector,
		},
		"set-configuration": {
			name:        "set-configuration",
			description: "Register a connector configuration schema from a JSON document",
			run:         runSetConfiguration,
		},
		"create-job": {
			name:        "create-job",
			description: "Create a pending sync job for a connector",
			run:         runCreateJob,
		},
		"get-job": {
			name:        "get-job",
			description: "Fetch a sync job by id and print it as JSON",
			run:         runGetJob,
		},
		"check-in": {
			name:        "check-in",
			description: "Refresh a sync job's last_seen timestamp",
			run:         runCheckIn,
		},
		"cancel": {
			name:        "cancel",
			description: "Request cancellation of a sync job",
			run:         runCancel,
		},
		"report-error": {
			name:        "report-error",
			description: "Mark a sync job failed with an error message",
			run:         runReportError,
		},
		"update-stats": {
			name:        "update-stats",
			description: "Replace a sync job's ingestion statistics",
			run:         runUpdateStats,
		},
		"list-jobs": {
			name:        "list-jobs",
			description: "List sync jobs with optional connector and status filters",
			run:         runListJobs,
		},
		"delete-job": {
			name:        "delete-job",
			description: "Delete a sync job document",
			run:         runDeleteJob,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: syncdock-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type withServicesOptions struct {
	Timeout time.Duration

	// Provision forces index provisioning before the command body runs,
	// regardless of the STORE_PROVISION_ON_START setting.
	Provision bool
}

// withServices connects the configured store backend, wires the service
// container, and hands both to f under a signal-aware timeout. Provisioning
// runs first when the command forces it or configuration enables it.
func withServices(
	cmdCtx *commandContext,
	opts withServicesOptions,
	f func(context.Context, bootstrap.ServiceContainer) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	conns, err := connectStore(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conns.Close(); cerr != nil {
			cmdCtx.Logger.Warn("store close failed", "error", cerr)
		}
	}()

	svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          conns.db,
		RedisClient: conns.redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	if opts.Provision || cmdCtx.Config.Store.ProvisionOnStart {
		if provErr := bootstrap.ProvisionStores(ctx, svcs.Store, cmdCtx.Config.Store, cmdCtx.Logger); provErr != nil {
			return fmt.Errorf("provision stores: %w", provErr)
		}
	}

	return f(ctx, svcs)
}

type provisionOptions struct {
	Timeout time.Duration
}

type seedOptions struct {
	Timeout time.Duration
}

func runProvision(cmdCtx *commandContext, args []string) error {
	opts, err := parseProvisionFlags(args)
	if err != nil {
		return err
	}

	cmdCtx.Logger.Info(
		"provisioning document indices",
		"backend", cmdCtx.Config.Store.Backend,
		"indices", strings.Join(cmdCtx.Config.Store.Indices(), ","),
	)

	svcOpts := withServicesOptions{Timeout: opts.Timeout, Provision: true}
	return withServices(cmdCtx, svcOpts, func(_ context.Context, _ bootstrap.ServiceContainer) error {
		cmdCtx.Logger.Info("provisioning completed successfully")
		return nil
	})
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout, Provision: true}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		cmdCtx.Logger.Info("seeding development data")
		seedSvcs := devseed.NewServices(svcs.Store, cmdCtx.Config.Store)
		if seedErr := devseed.Run(ctx, seedSvcs, cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}

		cmdCtx.Logger.Info("store seeding completed successfully")
		return nil
	})
}

func parseProvisionFlags(args []string) (provisionOptions, error) {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := provisionOptions{
		Timeout: defaultProvisionTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultProvisionTimeout,
		"Maximum duration to wait for provisioning to complete",
	)

	if err := fs.Parse(args); err != nil {
		return provisionOptions{}, err
	}

	if opts.Timeout <= 0 {
		return provisionOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseSeedFlags(args []string) (seedOptions, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := seedOptions{
		Timeout: defaultProvisionTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultProvisionTimeout,
		"Maximum duration to wait for seeding to complete",
	)

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}

	if opts.Timeout <= 0 {
		return seedOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}
