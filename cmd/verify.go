package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xERR0R/rrsigcheck/dnssec"
	"github.com/0xERR0R/rrsigcheck/log"
	"github.com/0xERR0R/rrsigcheck/metrics"
	"github.com/0xERR0R/rrsigcheck/zonecheck"
)

type verifyOptions struct {
	zone        string
	file        string
	metricsFile string
	now         string
}

// NewVerifyCommand creates new command instance
func NewVerifyCommand() *cobra.Command {
	opts := verifyOptions{}

	c := &cobra.Command{
		Use:   "verify",
		Args:  cobra.NoArgs,
		Short: "Verifies all signatures of a zone file",
		RunE: func(c *cobra.Command, _ []string) error {
			return runVerify(c, &opts)
		},
	}

	c.Flags().StringVar(&opts.zone, "zone", "", "zone origin, e.g. example.com.")
	c.Flags().StringVarP(&opts.file, "file", "f", "", "zone file in master file format, '-' for stdin")
	c.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	c.Flags().StringVar(&opts.now, "now", "", "check validity periods at this time (RFC 3339)")

	_ = c.MarkFlagRequired("zone")
	_ = c.MarkFlagRequired("file")

	return c
}

func runVerify(c *cobra.Command, opts *verifyOptions) error {
	if err := initConfig(); err != nil {
		return err
	}

	logger := log.PrefixedLog("verify")
	cfg.Verify.LogConfig(logger)

	var checkerOpts []zonecheck.Option

	if opts.now != "" {
		now, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}

		checkerOpts = append(checkerOpts, zonecheck.WithClock(func() time.Time { return now }))
	}

	in, err := openZoneFile(c, opts.file)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, _ := log.NewCtx(context.Background(), logger)

	report, err := zonecheck.NewChecker(cfg.Verify, checkerOpts...).Check(ctx, opts.zone, in)
	if err != nil {
		return err
	}

	printReport(c.OutOrStdout(), report)

	metricsFile := cfg.Verify.MetricsFile
	if opts.metricsFile != "" {
		metricsFile = opts.metricsFile
	}

	if metricsFile != "" {
		metrics.StartCollection()

		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if err := report.Err(); err != nil {
		return fmt.Errorf("zone '%s' failed verification: %w", report.Zone, err)
	}

	return nil
}

func openZoneFile(c *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(c.InOrStdin()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("zone file '%s' does not exist", path)
		}

		return nil, fmt.Errorf("can't open zone file: %w", err)
	}

	return f, nil
}

func printReport(w io.Writer, report *zonecheck.Report) {
	for _, f := range report.Findings {
		fmt.Fprintf(w, "%s %s\n", resultTag(f.Result), f)
	}

	for _, u := range report.Unsigned {
		fmt.Fprintf(w, "%s %s: %s\n", resultTag(dnssec.ResultError), u, zonecheck.ErrUnsigned)
	}

	fmt.Fprintf(w, "%d valid, %d invalid, %d errors, %d unsigned\n",
		report.Count(dnssec.ResultValid), report.Count(dnssec.ResultInvalid),
		report.Count(dnssec.ResultError), len(report.Unsigned))
}

func resultTag(res dnssec.Result) string {
	switch res {
	case dnssec.ResultValid:
		return "[ OK  ]"
	case dnssec.ResultInvalid:
		return "[FAIL ]"
	default:
		return "[ERROR]"
	}
}
