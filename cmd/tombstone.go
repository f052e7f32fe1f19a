package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var yesConfirm bool

// tombstoneCmd is the parent command for tombstone operations.
var tombstoneCmd = &cobra.Command{
	Use:   "tombstone",
	Short: "Inspect and manage deleted-record tombstones",
	Long: `Tombstones remember identities deleted locally so that sync never
pushes them back. Clearing them lets those identities sync again.`,
}

var tombstoneListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List the tombstones of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list, err := a.service.ListTombstones(ctx, args[0])
			if err != nil {
				return err
			}
			for _, t := range list {
				a.logger.Info("Tombstone", zap.String("identity", t.Identity), zap.Time("created_at", t.CreatedAt))
			}
			a.logger.Info("Tombstones listed", zap.String("collection", args[0]), zap.Int("count", len(list)))
			return nil
		})
	},
}

var tombstoneMarkCmd = &cobra.Command{
	Use:   "mark <collection> <identity>...",
	Short: "Tombstone identities without deleting local records",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			for _, id := range args[1:] {
				if err := a.service.MarkTombstone(ctx, args[0], id); err != nil {
					return err
				}
			}
			a.logger.Info("Tombstones marked", zap.String("collection", args[0]), zap.Int("count", len(args)-1))
			return nil
		})
	},
}

var tombstoneClearCmd = &cobra.Command{
	Use:   "clear <collection>",
	Short: "Remove every tombstone of a collection",
	Long: `Removes every tombstone of a collection. Previously deleted identities
that still exist locally will be pushed again by the next sync.

Examples:
  # Interactive confirmation
  tombstone clear lessons

  # Non-interactive
  tombstone clear lessons --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			collection := args[0]
			list, err := a.service.ListTombstones(ctx, collection)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				a.logger.Info("No tombstones to clear", zap.String("collection", collection))
				return nil
			}
			a.logger.Warn("Tombstones will be cleared", zap.String("collection", collection), zap.Int("count", len(list)))

			token, err := a.service.RequestClear(collection)
			if err != nil {
				return err
			}
			if !confirmDestructiveAction() {
				a.logger.Warn("Operation cancelled by user. No changes were made.")
				return nil
			}

			cleared, err := a.service.ClearTombstones(ctx, collection, token.Value)
			if err != nil {
				return err
			}
			a.logger.Info("Tombstones cleared", zap.String("collection", collection), zap.Int("count", cleared))
			return nil
		})
	},
}

func init() {
	tombstoneClearCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")

	tombstoneCmd.AddCommand(tombstoneListCmd, tombstoneMarkCmd, tombstoneClearCmd)
	RootCmd.AddCommand(tombstoneCmd)
}

// withApp wires the stores, runs fn and flushes the logger.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	return runWithApp(cmd, true, fn)
}

func runWithApp(cmd *cobra.Command, prepare bool, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, nil, prepare)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
