package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixFlag    bool
	jsonOutput bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the local and remote stores",
	Long:  `Reports local records with identity problems and verifies the remote schema or bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, true, true)
	},
}

var integrityLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Check local identities and tombstones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, true, false)
	},
}

var integrityRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Check and optionally fix the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, false, true)
	},
}

func init() {
	integrityCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the reports as JSON")
	integrityRemoteCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing remote tables or bucket")

	integrityCmd.AddCommand(integrityLocalCmd, integrityRemoteCmd)
	RootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, local, remote bool) error {
	// The schema is checked as found; --fix repairs it.
	return runWithApp(cmd, false, func(ctx context.Context, a *app) error {
		svc := a.integrity()
		reports := make(map[string]any)

		if local {
			report, err := svc.CheckLocal(ctx)
			if err != nil {
				return fmt.Errorf("local check failed: %w", err)
			}
			reports["local"] = report
			for name, c := range report.Collections {
				a.logger.Info("Local collection",
					zap.String("collection", name),
					zap.String("status", c.Status),
					zap.Int("records", c.Records),
					zap.Int("untagged", len(c.Untagged)),
					zap.Strings("duplicates", c.Duplicates),
					zap.Strings("shadowed", c.Shadowed),
				)
			}
			for _, e := range report.Errors {
				a.logger.Error(e)
			}
		}

		if remote {
			report, err := svc.CheckRemote(ctx, fixFlag)
			if err != nil {
				return fmt.Errorf("remote check failed: %w", err)
			}
			reports["remote"] = report
			a.logger.Info("Remote store",
				zap.String("driver", report.Driver),
				zap.Bool("matched", report.Matched),
			)
			for _, e := range report.Errors {
				a.logger.Warn(e)
			}
		}

		if jsonOutput {
			out, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		return nil
	})
}
