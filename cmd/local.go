package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"lesson-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// localCmd is the parent command for local store maintenance.
var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Inspect and edit the local store",
}

var localImportCmd = &cobra.Command{
	Use:   "import <collection> <file.json>",
	Short: "Replace a local collection with a JSON array of records",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, ok := a.driver.Collection(args[0]); !ok {
				return fmt.Errorf("%w: %s", reconcile.ErrUnknownCollection, args[0])
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			var payloads []*reconcile.Payload
			if err := json.Unmarshal(data, &payloads); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[1], err)
			}
			return a.local.Replace(ctx, args[0], payloads)
		})
	},
}

var localExportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Print a local collection as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			records, err := a.local.List(ctx, args[0])
			if err != nil {
				return err
			}
			payloads := make([]*reconcile.Payload, 0, len(records))
			for _, r := range records {
				payloads = append(payloads, r.Payload)
			}
			out, err := json.MarshalIndent(payloads, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		})
	},
}

var localDeleteCmd = &cobra.Command{
	Use:   "delete <collection> <identity>",
	Short: "Delete a local record and tombstone its identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.service.DeleteRecord(ctx, args[0], args[1])
		})
	},
}

// remoteCmd is the parent command for remote store administration.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Administer the remote store",
}

var remoteGrantCmd = &cobra.Command{
	Use:   "grant <principal>",
	Short: "Authorize a principal on the sql remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if a.sql == nil {
				return fmt.Errorf("grant is only supported by the sql remote (REMOTE_DRIVER=sql)")
			}
			if err := a.sql.Grant(ctx, args[0]); err != nil {
				return err
			}
			a.logger.Info("Principal granted", zap.String("principal", args[0]))
			return nil
		})
	},
}

func init() {
	localCmd.AddCommand(localImportCmd, localExportCmd, localDeleteCmd)
	remoteCmd.AddCommand(remoteGrantCmd)
	RootCmd.AddCommand(localCmd, remoteCmd)
}
