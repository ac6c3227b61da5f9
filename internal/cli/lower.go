package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsekit/internal/program"
	"github.com/roach88/pulsekit/internal/store"
	"github.com/roach88/pulsekit/internal/wire"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Output    string
	Store     string
	JobID     string
	Canonical bool
	Metrics   bool
}

// LowerResult summarizes one lowered program.
type LowerResult struct {
	Program     string          `json:"program"`
	QobjID      string          `json:"qobj_id"`
	Kind        string          `json:"kind"`
	Experiments int             `json:"experiments"`
	Output      string          `json:"output,omitempty"`
	ContentHash string          `json:"content_hash,omitempty"`
	Stored      bool            `json:"stored"`
	Job         json.RawMessage `json:"job,omitempty"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <program.yaml>",
		Short: "Lower a program into a wire job",
		Long: `Build the schedules or circuits of a program and lower them into one
PULSE or QASM job.

The job is written to --output, or to stdout when no output file is given.
With --store the job is also archived in a SQLite job store; archiving the
same job id twice is a no-op.

Examples:
  pulsekit lower ./programs/rabi.yaml
  pulsekit lower ./programs/rabi.yaml -o rabi.json --store ./jobs.db
  pulsekit lower ./programs/bell.yaml --format json --job-id bell-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the job to this file")
	cmd.Flags().StringVar(&opts.Store, "store", "", "archive the job in this SQLite job store")
	cmd.Flags().StringVar(&opts.JobID, "job-id", "", "use this job id instead of a generated UUIDv7")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "write canonical JSON (RFC 8785) instead of indented JSON")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print lowering metrics to stderr")

	return cmd
}

func runLower(ctx context.Context, opts *LowerOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := program.LoadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeProgram, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load program", err)
	}
	formatter.VerboseLog("Loaded %s program %q from %s", p.Kind, p.Name, path)

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	runnerOpts := []program.Option{program.WithLogger(logger)}
	if opts.JobID != "" {
		runnerOpts = append(runnerOpts, program.WithIDGenerator(wire.NewFixedGenerator(opts.JobID)))
	}
	res, err := program.LowerFile(ctx, p, runnerOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeLowering, err.Error(), nil)
		return WrapExitError(ExitFailure, "lowering failed", err)
	}

	var data []byte
	if opts.Canonical {
		data, err = res.CanonicalJSON()
	} else {
		data, err = res.JSON()
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode job", err)
	}

	out := summarize(p.Name, res)
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write job", err)
		}
		out.Output = opts.Output
	}

	if opts.Store != "" {
		rec, inserted, err := archive(ctx, opts.Store, res, logger)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to archive job", err)
		}
		out.ContentHash = rec.ContentHash
		out.Stored = inserted
		formatter.VerboseLog("Archived job %s (inserted=%t, hash=%s)", rec.ID, inserted, rec.ContentHash)
	}

	if opts.Metrics {
		if err := writeMetrics(cmd.ErrOrStderr()); err != nil {
			return WrapExitError(ExitFailure, "failed to gather metrics", err)
		}
	}

	if formatter.JSON() {
		if opts.Output == "" {
			out.Job = data
		}
		return formatter.Success(out)
	}
	if opts.Output == "" {
		_, err := fmt.Fprintln(formatter.Writer, string(data))
		return err
	}
	fmt.Fprintf(formatter.Writer, "✓ Lowered %s: %s job %s with %d experiment(s) -> %s\n",
		out.Program, out.Kind, out.QobjID, out.Experiments, out.Output)
	if opts.Store != "" && !out.Stored {
		fmt.Fprintf(formatter.Writer, "  job %s was already archived\n", out.QobjID)
	}
	return nil
}

func summarize(name string, res *program.Result) LowerResult {
	if res.Pulse != nil {
		return LowerResult{Program: name, QobjID: res.Pulse.QobjID, Kind: res.Pulse.Type, Experiments: len(res.Pulse.Experiments)}
	}
	return LowerResult{Program: name, QobjID: res.Circuit.QobjID, Kind: res.Circuit.Type, Experiments: len(res.Circuit.Experiments)}
}

func archive(ctx context.Context, path string, res *program.Result, logger *slog.Logger) (store.Record, bool, error) {
	rec, err := res.Record()
	if err != nil {
		return store.Record{}, false, err
	}
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return store.Record{}, false, err
	}
	defer st.Close()

	inserted, err := st.WriteJob(ctx, rec)
	if err != nil {
		return store.Record{}, false, err
	}
	return rec, inserted, nil
}
