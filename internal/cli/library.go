package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsekit/internal/store"
)

// PulseSummary is one row of the library listing.
type PulseSummary struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
	Jobs   int    `json:"jobs"`
}

// NewLibraryCommand creates the library command.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List archived pulse library entries",
		Long: `List the sample pulses shared by archived PULSE jobs, with their length
and the number of jobs that reference them.

Examples:
  pulsekit library --store ./jobs.db
  pulsekit library show <pulse-name> --store ./jobs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				entries, err := st.ListPulses(ctx)
				if err != nil {
					return err
				}
				return outputPulses(f, entries)
			})
		},
	}
	addStoreFlag(cmd, opts)

	cmd.AddCommand(&cobra.Command{
		Use:           "show <pulse-name>",
		Short:         "Print the samples of one library entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				item, err := st.ReadPulse(ctx, args[0])
				if err != nil {
					return err
				}
				if f.JSON() {
					return f.Success(item)
				}
				return f.encodeIndented(item)
			})
		},
	})

	return cmd
}

func outputPulses(f *OutputFormatter, entries []store.PulseEntry) error {
	pulses := make([]PulseSummary, len(entries))
	rows := make([][]string, len(entries))
	for i, e := range entries {
		pulses[i] = PulseSummary(e)
		rows[i] = []string{e.Name, strconv.Itoa(e.Length), strconv.Itoa(e.Jobs)}
	}
	if f.JSON() {
		return f.Success(pulses)
	}
	return f.Table([]string{"NAME", "LENGTH", "JOBS"}, rows)
}
