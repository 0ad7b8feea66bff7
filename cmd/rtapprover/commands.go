package main

import (
	"github.com/spf13/cobra"
)

func approveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Evaluate one round trip and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, roundTrip, err := roundTripFlags(cmd)
			if err != nil {
				return err
			}
			srv, err := openService(cmd)
			if err != nil {
				return err
			}
			defer srv.Close()
			notification, err := srv.Approve(cmd.Context(), batchID, roundTrip)
			if err != nil {
				return err
			}
			if err = writeJSON(cmd.OutOrStdout(), notification); err != nil {
				return err
			}
			return checkNotifications(notification)
		},
	}
	batchFlags(cmd, true)
	return cmd
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate every round trip of a batch in ascending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, _ := cmd.Flags().GetString("batch")
			srv, err := openService(cmd)
			if err != nil {
				return err
			}
			defer srv.Close()
			notifications, err := srv.EvaluateBatch(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			if err = writeJSON(cmd.OutOrStdout(), notifications); err != nil {
				return err
			}
			return checkNotifications(notifications...)
		},
	}
	batchFlags(cmd, false)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the round trips and events of a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, _ := cmd.Flags().GetString("batch")
			srv, err := openService(cmd)
			if err != nil {
				return err
			}
			defer srv.Close()
			history, err := srv.History(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), history)
		},
	}
	batchFlags(cmd, false)
	return cmd
}

func flagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Record that a round trip passed manual QA",
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, roundTrip, err := roundTripFlags(cmd)
			if err != nil {
				return err
			}
			actor, _ := cmd.Flags().GetString("actor")
			details, _ := cmd.Flags().GetString("details")
			srv, err := openService(cmd)
			if err != nil {
				return err
			}
			defer srv.Close()
			return srv.Flag(cmd.Context(), batchID, roundTrip, actor, details)
		},
	}
	batchFlags(cmd, true)
	cmd.Flags().String("actor", "ManualQA", "Actor recorded on the event")
	cmd.Flags().String("details", "", "Event details")
	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a round trip of a batch without events",
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, roundTrip, err := roundTripFlags(cmd)
			if err != nil {
				return err
			}
			srv, err := openService(cmd)
			if err != nil {
				return err
			}
			defer srv.Close()
			return srv.Register(cmd.Context(), batchID, roundTrip)
		},
	}
	batchFlags(cmd, true)
	return cmd
}
