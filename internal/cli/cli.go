// Package cli builds the kitchen runner's command surface: a root `run`
// command taking the spec's positional form plus flags, and a `replay`
// subcommand for re-running a saved test-case file. Errors print to stderr
// and the process exits non-zero; cmd/kitchen sets SilenceUsage, so the
// usage text is not printed alongside an error.
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// Defaults per spec §6.
const (
	defaultRateMicros      = 500_000
	defaultMinPickupMicros = 4_000_000
	defaultMaxPickupMicros = 8_000_000
)

const defaultEndpoint = "https://api.cloudkitchens.com/interview/challenge"

// options collects every flag the run and replay commands share.
type options struct {
	configPath     string
	endpoint       string
	metricsAddr    string
	saveTestPath   string
	loadTestPath   string
	skipSubmission bool
	verbose        bool
}

func bindSharedFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.configPath, "config", "", "optional YAML defaults file")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "challenge server base URL (overrides --config)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", `address for the metrics server ("" disables it)`)
	cmd.Flags().StringVar(&opts.saveTestPath, "save-test", "", "save the fetched problem to this test-case file")
	cmd.Flags().StringVar(&opts.loadTestPath, "load-test", "", "load orders/timing from this test-case file instead of fetching a new problem")
	cmd.Flags().BoolVar(&opts.skipSubmission, "skip-submission", false, "run the engine but do not submit the ledger")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "development-mode logging (console encoding, debug level)")
}

// BuildCLI assembles the root command.
func BuildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:     "kitchen",
		Short:   "Drives a kitchen fulfillment run against the CloudKitchens challenge server",
		Version: version,
	}

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildReplayCommand())
	return root
}

func buildRunCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run <auth_token> [rate_ms] [min_pickup_ms] [max_pickup_ms] [seed]",
		Short: "Fetch a problem (or load one) and run it to completion",
		Args:  cobra.RangeArgs(1, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			timing, err := parseTimingArgs(args[1:])
			if err != nil {
				return err
			}
			return Run(cmd.Context(), opts, args[0], timing)
		},
	}

	bindSharedFlags(cmd, opts)
	return cmd
}

func buildReplayCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "replay <test-file> [auth_token]",
		Short: "Re-run a saved test-case file without fetching a new problem",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.loadTestPath = args[0]
			var authToken string
			if len(args) == 2 {
				authToken = args[1]
			} else if !opts.skipSubmission {
				return fmt.Errorf("cli: replay requires an auth_token unless --skip-submission is set")
			}
			return Run(cmd.Context(), opts, authToken, timingArgs{})
		},
	}

	bindSharedFlags(cmd, opts)
	return cmd
}

// timingArgs holds the run's cadence and pickup-window parameters, parsed
// from the positional form, with the defaults filling any argument left
// out. Replay passes a zero timingArgs, which Run replaces with the loaded
// test-case file's values.
type timingArgs struct {
	rateMicros      int64
	minPickupMicros int64
	maxPickupMicros int64
	seed            *int64
	set             bool
}

func parseTimingArgs(args []string) (timingArgs, error) {
	t := timingArgs{
		rateMicros:      defaultRateMicros,
		minPickupMicros: defaultMinPickupMicros,
		maxPickupMicros: defaultMaxPickupMicros,
		set:             true,
	}

	fields := []*int64{&t.rateMicros, &t.minPickupMicros, &t.maxPickupMicros}
	// Positional args are given in milliseconds; the engine works in
	// microseconds throughout.
	for i, arg := range args {
		if i >= len(fields) {
			seed, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return t, fmt.Errorf("cli: seed must be an integer: %w", err)
			}
			t.seed = &seed
			continue
		}
		ms, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return t, fmt.Errorf("cli: positional timing argument %q must be an integer number of milliseconds: %w", arg, err)
		}
		*fields[i] = ms * 1_000
	}
	return t, nil
}
