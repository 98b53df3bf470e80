package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seatrove/syncdock/internal/bootstrap"
	"github.com/seatrove/syncdock/internal/domain/model"
)

type createJobOptions struct {
	ConnectorID string
	JobType     string
	Trigger     string
	Timeout     time.Duration
}

// jobRefOptions addresses a single sync job. The get-job, check-in, cancel,
// and delete-job commands share this shape.
type jobRefOptions struct {
	ID      string
	Timeout time.Duration
}

type reportErrorOptions struct {
	ID      string
	Message string
	Timeout time.Duration
}

type updateStatsOptions struct {
	JobID    string
	Deleted  int64
	Indexed  int64
	Volume   int64
	Total    int64
	TotalSet bool
	LastSeen string
	Timeout  time.Duration
}

type listJobsOptions struct {
	ConnectorID string
	Status      string
	From        int
	Size        int
	RawJSON     bool
	Timeout     time.Duration
}

func runCreateJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateJobFlags(args)
	if err != nil {
		return err
	}

	req := &model.CreateSyncJobRequest{
		ConnectorID:   opts.ConnectorID,
		JobType:       model.SyncJobType(opts.JobType),
		TriggerMethod: model.TriggerMethod(opts.Trigger),
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		id, createErr := svcs.SyncJobs.Create(ctx, req)
		if createErr != nil {
			return createErr
		}

		if printErr := writef(os.Stdout, "Created sync job %s for connector %s\n", id, opts.ConnectorID); printErr != nil {
			return fmt.Errorf("print sync job id: %w", printErr)
		}
		return nil
	})
}

func runGetJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("get-job", args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		job, getErr := svcs.SyncJobs.Get(ctx, opts.ID)
		if getErr != nil {
			return getErr
		}

		if printErr := printJSON(job); printErr != nil {
			return fmt.Errorf("print sync job: %w", printErr)
		}
		return nil
	})
}

func runCheckIn(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("check-in", args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		if checkErr := svcs.SyncJobs.CheckIn(ctx, opts.ID); checkErr != nil {
			return checkErr
		}

		if printErr := writef(os.Stdout, "Checked in sync job %s\n", opts.ID); printErr != nil {
			return fmt.Errorf("print check-in confirmation: %w", printErr)
		}
		return nil
	})
}

func runCancel(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("cancel", args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		if cancelErr := svcs.SyncJobs.Cancel(ctx, opts.ID); cancelErr != nil {
			return cancelErr
		}

		if printErr := writef(os.Stdout, "Cancellation requested for sync job %s\n", opts.ID); printErr != nil {
			return fmt.Errorf("print cancel confirmation: %w", printErr)
		}
		return nil
	})
}

func runReportError(cmdCtx *commandContext, args []string) error {
	opts, err := parseReportErrorFlags(args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		if reportErr := svcs.SyncJobs.ReportError(ctx, opts.ID, opts.Message); reportErr != nil {
			return reportErr
		}

		if printErr := writef(os.Stdout, "Recorded error on sync job %s\n", opts.ID); printErr != nil {
			return fmt.Errorf("print report-error confirmation: %w", printErr)
		}
		return nil
	})
}

func runUpdateStats(cmdCtx *commandContext, args []string) error {
	opts, err := parseUpdateStatsFlags(args)
	if err != nil {
		return err
	}

	req, err := buildStatsRequest(&opts)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		if updateErr := svcs.SyncJobs.UpdateIngestionStats(ctx, req); updateErr != nil {
			return updateErr
		}

		if printErr := writef(os.Stdout, "Updated ingestion statistics for sync job %s\n", opts.JobID); printErr != nil {
			return fmt.Errorf("print update-stats confirmation: %w", printErr)
		}
		return nil
	})
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseListJobsFlags(args)
	if err != nil {
		return err
	}

	req := &model.ListSyncJobsRequest{
		From:        opts.From,
		Size:        opts.Size,
		ConnectorID: opts.ConnectorID,
		Status:      model.SyncStatus(opts.Status),
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		list, listErr := svcs.SyncJobs.List(ctx, req)
		if listErr != nil {
			return listErr
		}

		if opts.RawJSON {
			return printJobListJSON(list)
		}
		return renderJobList(list)
	})
}

func runDeleteJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobRefFlags("delete-job", args)
	if err != nil {
		return err
	}

	svcOpts := withServicesOptions{Timeout: opts.Timeout}
	return withServices(cmdCtx, svcOpts, func(ctx context.Context, svcs bootstrap.ServiceContainer) error {
		if deleteErr := svcs.SyncJobs.Delete(ctx, opts.ID); deleteErr != nil {
			return deleteErr
		}

		if printErr := writef(os.Stdout, "Deleted sync job %s\n", opts.ID); printErr != nil {
			return fmt.Errorf("print delete confirmation: %w", printErr)
		}
		return nil
	})
}

// buildStatsRequest translates stats flags into the service request. The
// total counter travels as a pointer so an omitted --total leaves the stored
// value untouched.
func buildStatsRequest(opts *updateStatsOptions) (*model.UpdateIngestionStatsRequest, error) {
	req := &model.UpdateIngestionStatsRequest{
		JobID:                 opts.JobID,
		DeletedDocumentCount:  opts.Deleted,
		IndexedDocumentCount:  opts.Indexed,
		IndexedDocumentVolume: opts.Volume,
	}

	if opts.TotalSet {
		total := opts.Total
		req.TotalDocumentCount = &total
	}

	if opts.LastSeen != "" {
		ts, err := time.Parse(time.RFC3339, opts.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("--last-seen must be RFC 3339: %w", err)
		}
		utc := ts.UTC()
		req.LastSeen = &utc
	}

	return req, nil
}

type jobListDocument struct {
	Jobs  []*model.SyncJob `json:"jobs"`
	Total int64            `json:"total"`
}

func printJobListJSON(list *model.SyncJobList) error {
	doc := jobListDocument{
		Jobs:  make([]*model.SyncJob, 0, len(list.Results)),
		Total: list.Total,
	}
	for i := range list.Results {
		job, err := list.Results[i].Job()
		if err != nil {
			return fmt.Errorf("decode sync job %s: %w", list.Results[i].ID, err)
		}
		doc.Jobs = append(doc.Jobs, job)
	}

	if err := printJSON(doc); err != nil {
		return fmt.Errorf("print job list: %w", err)
	}
	return nil
}

func renderJobList(list *model.SyncJobList) error {
	if len(list.Results) == 0 {
		if err := writeln(os.Stdout, "(no sync jobs matched)"); err != nil {
			return fmt.Errorf("write job list empty message: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tSTATUS\tTYPE\tTRIGGER\tCONNECTOR\tCREATED (UTC)\tLAST SEEN (UTC)\tINDEXED\tERROR"); err != nil {
		return fmt.Errorf("write job list header row: %w", err)
	}

	for i := range list.Results {
		job, err := list.Results[i].Job()
		if err != nil {
			return fmt.Errorf("decode sync job %s: %w", list.Results[i].ID, err)
		}

		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			job.ID,
			job.Status,
			job.JobType,
			job.TriggerMethod,
			jobConnectorID(job),
			formatTimestamp(job.CreatedAt),
			formatTimestamp(job.LastSeen),
			job.IndexedDocumentCount,
			renderJobError(job.Error),
		); err != nil {
			return fmt.Errorf("write job list row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush job list table: %w", err)
	}

	if err := writef(os.Stdout, "\nShowing %d of %d job(s)\n", len(list.Results), list.Total); err != nil {
		return fmt.Errorf("write job list footer: %w", err)
	}
	return nil
}

func jobConnectorID(job *model.SyncJob) string {
	if job.Connector == nil || job.Connector.ID == "" {
		return "-"
	}
	return job.Connector.ID
}

const maxErrorColumnWidth = 60

func renderJobError(msg *string) string {
	if msg == nil || *msg == "" {
		return "-"
	}
	flat := strings.Join(strings.Fields(*msg), " ")
	if len(flat) > maxErrorColumnWidth {
		return flat[:maxErrorColumnWidth-3] + "..."
	}
	return flat
}

func parseCreateJobFlags(args []string) (createJobOptions, error) {
	fs := flag.NewFlagSet("create-job", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := createJobOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ConnectorID, "connector-id", "", "Connector the job ingests for")
	fs.StringVar(&opts.JobType, "job-type", "", "Job type (full|incremental|access_control); empty uses the default")
	fs.StringVar(&opts.Trigger, "trigger", "", "Trigger method (on_demand|scheduled); empty uses the default")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return createJobOptions{}, err
	}

	normalizeCreateJobOptions(&opts)
	if err := validateCreateJobOptions(&opts); err != nil {
		return createJobOptions{}, err
	}

	return opts, nil
}

func normalizeCreateJobOptions(opts *createJobOptions) {
	opts.ConnectorID = strings.TrimSpace(opts.ConnectorID)
	opts.JobType = strings.ToLower(strings.TrimSpace(opts.JobType))
	opts.Trigger = strings.ToLower(strings.TrimSpace(opts.Trigger))
}

func validateCreateJobOptions(opts *createJobOptions) error {
	if opts.ConnectorID == "" {
		return errors.New("--connector-id is required")
	}
	if opts.JobType != "" && !model.SyncJobType(opts.JobType).Valid() {
		return fmt.Errorf("invalid job type %q", opts.JobType)
	}
	if opts.Trigger != "" && !model.TriggerMethod(opts.Trigger).Valid() {
		return fmt.Errorf("invalid trigger method %q", opts.Trigger)
	}
	if opts.Timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}

func parseJobRefFlags(name string, args []string) (jobRefOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := jobRefOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ID, "id", "", "Sync job id")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return jobRefOptions{}, err
	}

	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return jobRefOptions{}, errors.New("--id is required")
	}
	if opts.Timeout <= 0 {
		return jobRefOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseReportErrorFlags(args []string) (reportErrorOptions, error) {
	fs := flag.NewFlagSet("report-error", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := reportErrorOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ID, "id", "", "Sync job id")
	fs.StringVar(&opts.Message, "message", "", "Error message to record on the job")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return reportErrorOptions{}, err
	}

	opts.ID = strings.TrimSpace(opts.ID)
	opts.Message = strings.TrimSpace(opts.Message)
	if opts.ID == "" {
		return reportErrorOptions{}, errors.New("--id is required")
	}
	if opts.Message == "" {
		return reportErrorOptions{}, errors.New("--message is required")
	}
	if opts.Timeout <= 0 {
		return reportErrorOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseUpdateStatsFlags(args []string) (updateStatsOptions, error) {
	fs := flag.NewFlagSet("update-stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := updateStatsOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.JobID, "id", "", "Sync job id")
	fs.Int64Var(&opts.Deleted, "deleted", 0, "Deleted document count (counters are replaced, not added)")
	fs.Int64Var(&opts.Indexed, "indexed", 0, "Indexed document count")
	fs.Int64Var(&opts.Volume, "volume", 0, "Indexed document volume in bytes")
	fs.Int64Var(&opts.Total, "total", 0, "Total document count; omit to leave the stored value unchanged")
	fs.StringVar(&opts.LastSeen, "last-seen", "", "Liveness timestamp in RFC 3339; empty uses the service clock")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return updateStatsOptions{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			opts.TotalSet = true
		}
	})

	opts.JobID = strings.TrimSpace(opts.JobID)
	opts.LastSeen = strings.TrimSpace(opts.LastSeen)
	if opts.JobID == "" {
		return updateStatsOptions{}, errors.New("--id is required")
	}
	if opts.Timeout <= 0 {
		return updateStatsOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseListJobsFlags(args []string) (listJobsOptions, error) {
	fs := flag.NewFlagSet("list-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listJobsOptions{
		Timeout: defaultStoreTimeout,
	}

	fs.StringVar(&opts.ConnectorID, "connector-id", "", "Only list jobs owned by this connector")
	fs.StringVar(&opts.Status, "status", "", "Only list jobs in this status")
	fs.IntVar(&opts.From, "from", 0, "Result offset for pagination")
	fs.IntVar(&opts.Size, "size", 0, "Page size (0 uses the service default)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the page as JSON instead of a table")
	fs.DurationVar(&opts.Timeout, "timeout", defaultStoreTimeout, "Maximum duration to wait for the store")

	if err := fs.Parse(args); err != nil {
		return listJobsOptions{}, err
	}

	normalizeListJobsOptions(&opts)
	if err := validateListJobsOptions(&opts); err != nil {
		return listJobsOptions{}, err
	}

	return opts, nil
}

func normalizeListJobsOptions(opts *listJobsOptions) {
	opts.ConnectorID = strings.TrimSpace(opts.ConnectorID)
	opts.Status = strings.ToLower(strings.TrimSpace(opts.Status))
}

func validateListJobsOptions(opts *listJobsOptions) error {
	if opts.Status != "" && !model.SyncStatus(opts.Status).Valid() {
		return fmt.Errorf("invalid status %q", opts.Status)
	}
	if opts.From < 0 {
		return errors.New("--from must be >= 0")
	}
	if opts.Size < 0 {
		return errors.New("--size must be >= 0")
	}
	if opts.Timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}
