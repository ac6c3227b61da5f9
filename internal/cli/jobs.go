package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsekit/internal/store"
	"github.com/roach88/pulsekit/internal/wire"
)

// StoreOptions holds the flag shared by commands that read the job store.
type StoreOptions struct {
	*RootOptions
	Store string
}

func addStoreFlag(cmd *cobra.Command, opts *StoreOptions) {
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "path to SQLite job store (required)")
	_ = cmd.MarkPersistentFlagRequired("store")
}

// JobSummary is one row of the jobs listing.
type JobSummary struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Backend     string `json:"backend"`
	Experiments int    `json:"experiments"`
	ContentHash string `json:"content_hash"`
	Seq         int64  `json:"seq"`
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and inspect archived jobs",
		Long: `List and inspect jobs archived with "pulsekit lower --store".

Examples:
  pulsekit jobs --store ./jobs.db
  pulsekit jobs show <job-id> --store ./jobs.db
  pulsekit jobs find <content-hash> --store ./jobs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				recs, err := st.ListJobs(ctx)
				if err != nil {
					return err
				}
				return outputJobs(f, recs)
			})
		},
	}
	addStoreFlag(cmd, opts)

	cmd.AddCommand(&cobra.Command{
		Use:           "show <job-id>",
		Short:         "Print an archived job as wire JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				return showJob(ctx, st, f, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "find <content-hash>",
		Short:         "List archived jobs with the given content hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				recs, err := st.FindByContentHash(ctx, args[0])
				if err != nil {
					return err
				}
				return outputJobs(f, recs)
			})
		},
	})

	return cmd
}

// withStore opens the store named by opts and runs fn. Missing rows map to
// ExitFailure; any other store error is a command error.
func withStore(cmd *cobra.Command, opts *StoreOptions, fn func(context.Context, *store.Store, *OutputFormatter) error) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Store, store.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	if err := fn(cmd.Context(), st, formatter); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		if errors.Is(err, sql.ErrNoRows) {
			return WrapExitError(ExitFailure, "not found", err)
		}
		return WrapExitError(ExitCommandError, "store query failed", err)
	}
	return nil
}

func outputJobs(f *OutputFormatter, recs []store.Record) error {
	jobs := make([]JobSummary, len(recs))
	for i, r := range recs {
		jobs[i] = JobSummary{ID: r.ID, Kind: r.Kind, Backend: r.Backend, Experiments: r.Experiments, ContentHash: r.ContentHash, Seq: r.Seq}
	}
	if f.JSON() {
		return f.Success(jobs)
	}
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(f.Writer, "No jobs found.")
		return err
	}
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = []string{strconv.FormatInt(j.Seq, 10), j.ID, j.Kind, j.Backend, strconv.Itoa(j.Experiments), shortHash(j.ContentHash)}
	}
	return f.Table([]string{"SEQ", "ID", "KIND", "BACKEND", "EXPERIMENTS", "HASH"}, rows)
}

func showJob(ctx context.Context, st *store.Store, f *OutputFormatter, id string) error {
	rec, err := st.ReadJob(ctx, id)
	if err != nil {
		return err
	}
	var job any
	if rec.Kind == wire.TypePulse {
		job, err = st.ReadPulseJob(ctx, id)
	} else {
		job, err = st.ReadCircuitJob(ctx, id)
	}
	if err != nil {
		return err
	}
	if f.JSON() {
		return f.Success(job)
	}
	return f.encodeIndented(job)
}

// shortHash trims a hex content hash for table output.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
