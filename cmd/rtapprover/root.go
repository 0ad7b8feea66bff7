package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/roundtrip"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/processor"
)

// errFailuresReported signals that at least one evaluation failed.
var errFailuresReported = errors.New("evaluation reported failures")

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rtapprover",
		Short:         "Round-trip approver for digitized newspaper batches",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config URL (file://, s3://, gs://, mem://)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level")

	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(flagCmd())
	rootCmd.AddCommand(registerCmd())
	return rootCmd
}

// openService builds the service from the --config flag.
func openService(cmd *cobra.Command) (*roundtrip.Service, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	configURL, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := roundtrip.DefaultConfig()
	if configURL != "" {
		var err error
		if cfg, err = roundtrip.LoadConfig(ctx, configURL); err != nil {
			return nil, err
		}
	}
	return roundtrip.New(ctx, roundtrip.WithConfig(cfg), roundtrip.WithLogger(logger))
}

func batchFlags(cmd *cobra.Command, withRoundTrip bool) {
	cmd.Flags().StringP("batch", "b", "", "Batch id, e.g. 400022028241")
	if !withRoundTrip {
		_ = cmd.MarkFlagRequired("batch")
		return
	}
	cmd.Flags().IntP("roundtrip", "r", 0, "Round trip number")
	cmd.Flags().StringP("fullid", "f", "", "Full round trip id, e.g. B400022028241-RT1")
	cmd.MarkFlagsMutuallyExclusive("fullid", "batch")
	cmd.MarkFlagsMutuallyExclusive("fullid", "roundtrip")
}

// roundTripFlags returns the round trip named by --fullid or by --batch and --roundtrip.
func roundTripFlags(cmd *cobra.Command) (string, int, error) {
	if fullID, _ := cmd.Flags().GetString("fullid"); fullID != "" {
		return model.ParseFullID(fullID)
	}
	flags := cmd.Flags()
	if !flags.Changed("batch") || !flags.Changed("roundtrip") {
		return "", 0, fmt.Errorf("either --fullid or both --batch and --roundtrip are required")
	}
	batchID, _ := flags.GetString("batch")
	roundTrip, _ := flags.GetInt("roundtrip")
	return batchID, roundTrip, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func checkNotifications(notifications ...*processor.Notification) error {
	for _, notification := range notifications {
		if !notification.Success {
			return fmt.Errorf("%w: %s", errFailuresReported, notification.FullID)
		}
	}
	return nil
}
