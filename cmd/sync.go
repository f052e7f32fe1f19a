package cmd

import (
	"context"
	"errors"
	"fmt"

	"lesson-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncAll       bool
	syncForce     bool
	syncDryRun    bool
	syncPrincipal string
)

// syncCmd runs reconciliation passes.
var syncCmd = &cobra.Command{
	Use:   "sync [collection...]",
	Short: "Push local changes to the remote store",
	Long: `Runs one reconciliation pass per collection for a principal.

Examples:
  # Sync lessons for the configured principal
  sync lessons

  # Sync every configured collection
  sync --all

  # Show what would change without writing
  sync lessons --dry-run

  # Ignore the throttle
  sync compositions --force --principal teacher-1`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every collection listed in SYNC_COLLECTIONS")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Bypass the throttle")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Print pending changes without applying them")
	syncCmd.Flags().StringVar(&syncPrincipal, "principal", "", "Remote principal (default SYNC_PRINCIPAL)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		collections := args
		if syncAll {
			collections = a.cfg.Sync.Collections
		}
		if len(collections) == 0 {
			return fmt.Errorf("no collection given; pass one or more names or --all")
		}

		principal := syncPrincipal
		if principal == "" {
			principal = a.cfg.Sync.Principal
		}

		if syncDryRun {
			return previewCollections(ctx, a, collections, principal)
		}

		reports, err := a.service.SyncAll(ctx, collections, principal, syncForce)
		for _, r := range reports {
			printSyncReport(a.logger, r)
		}

		var partial *reconcile.PartialApplyError
		if errors.As(err, &partial) {
			a.logger.Warn("Some records were not applied; run sync again to retry them")
		}
		return err
	})
}

func previewCollections(ctx context.Context, a *app, collections []string, principal string) error {
	var errs []error
	for _, c := range collections {
		p, err := a.service.Preview(ctx, c, principal)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			continue
		}

		a.logger.Info("Sync preview",
			zap.String("collection", c),
			zap.Int("pending", len(p.Pending)),
			zap.Int("suppressed", p.Suppressed),
			zap.Int("unchanged", p.Unchanged),
			zap.Int("remote_only", p.RemoteOnly),
		)
		for _, r := range p.Pending {
			a.logger.Info("Pending action",
				zap.String("action", string(r.Action)),
				zap.String("identity", r.Identity),
			)
		}
		for _, w := range p.Warnings {
			a.logger.Warn(w)
		}
	}
	a.logger.Info("Dry-run mode: No changes were made.")
	return errors.Join(errs...)
}

// printSyncReport prints a pass report using logger.
func printSyncReport(l *zap.Logger, r *reconcile.Report) {
	l.Info("Sync report",
		zap.String("collection", r.Collection),
		zap.String("principal", r.Principal),
		zap.String("state", string(r.Outcome)),
		zap.Int("created", r.Created),
		zap.Int("updated", r.Updated),
		zap.Int("suppressed", r.Suppressed),
		zap.Int("unchanged", r.Unchanged),
		zap.Int("remote_only", r.RemoteOnly),
		zap.Int("skipped_duplicate", r.SkippedDuplicate),
		zap.Int("failed", r.Failed),
		zap.Duration("duration", r.Duration),
	)

	// Show a sample of failures (max 5)
	maxShow := min(len(r.Failures), 5)
	for _, f := range r.Failures[:maxShow] {
		l.Warn("Failed record", zap.String("identity", f.Identity), zap.String("reason", f.Reason))
	}
	if len(r.Failures) > maxShow {
		l.Warn("Additional failures not shown", zap.Int("count", len(r.Failures)-maxShow))
	}
	for _, w := range r.Warnings {
		l.Warn(w)
	}
}
