package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	internaldb "dirportal/internal/db"
	"dirportal/internal/db/repository"
	"dirportal/internal/domain"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and prune the portal's audit trail",
	}

	cmd.AddCommand(newAuditListCmd())
	cmd.AddCommand(newAuditPruneCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		limit  int
		action string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries from the local audit database",
		Args:  cobra.NoArgs,
		Example: `  # The 20 most recent entries
  dirctl audit list --limit 20

  # Only user deletions
  dirctl audit list --action user.delete`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeRepo, err := openAuditRepo(getDBPath(cmd))
			if err != nil {
				return err
			}
			defer closeRepo()

			filter := domain.AuditFilter{Page: domain.PageRequest{MaxResults: limit}}
			if action != "" {
				filter.Action = &action
			}
			if actor != "" {
				filter.Actor = &actor
			}

			entries, total, err := repo.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list audit entries: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"total":   total,
					"entries": entries,
				})
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.CreatedAt.Format(time.RFC3339),
					e.Actor,
					e.Action,
					e.Target,
					e.Status,
					e.Message,
				})
			}
			printTable(cmd.OutOrStdout(), []string{"time", "actor", "action", "target", "status", "message"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d entries\n", len(rows), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to print")
	cmd.Flags().StringVar(&action, "action", "", "Only entries with this action (e.g. user.create)")
	cmd.Flags().StringVar(&actor, "actor", "", "Only entries recorded for this actor")
	return cmd
}

func newAuditPruneCmd() *cobra.Command {
	var keepDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete audit entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keepDays <= 0 {
				return fmt.Errorf("--keep-days must be positive")
			}
			repo, closeRepo, err := openAuditRepo(getDBPath(cmd))
			if err != nil {
				return err
			}
			defer closeRepo()

			cutoff := time.Now().Add(-time.Duration(keepDays) * 24 * time.Hour)
			deleted, err := repo.DeleteBefore(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("prune audit entries: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"deleted": deleted,
					"cutoff":  cutoff.UTC().Format(time.RFC3339),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries older than %s\n", deleted, cutoff.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "Retain entries newer than this many days")
	_ = cmd.MarkFlagRequired("keep-days")
	return cmd
}

// openAuditRepo opens the portal's audit store. The file must already exist;
// opening would otherwise create an empty database where the operator
// mistyped the path.
func openAuditRepo(path string) (*repository.AuditRepo, func(), error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("audit database %q: %w", path, err)
	}
	store, err := internaldb.Open(path, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit database: %w", err)
	}
	closeStore := func() { _ = store.Close() }
	return repository.NewAuditRepo(store.Write, store.Read), closeStore, nil
}
