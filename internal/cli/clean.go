// clean.go implements the "cutover clean" command pruning old archived
// sessions and their debriefs.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/cleanup"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old archived sessions",
	Long: `Remove old sessions from the archive along with their exported debriefs.

By default, removes sessions that ended more than archive.max_age_days ago
(default 30). Use --keep to keep only the N most recent sessions instead.
Use --dry-run to preview what would be removed.`,
	RunE: runClean,
}

var (
	keepFlag   int
	dryRunFlag bool
)

func init() {
	cleanCmd.Flags().IntVar(&keepFlag, "keep", 0, "Keep only the last N sessions (0 = use age-based cleanup)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	store, err := proj.openArchive()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("the archive is disabled in .cutover/config.yaml")
	}
	defer store.Close()

	ctx := cmd.Context()
	reportsDir := proj.path(proj.cfg.Archive.ReportsDir)

	var pruned []string
	if keepFlag > 0 {
		pruned, err = cleanup.PruneKeepRecent(ctx, store, reportsDir, keepFlag, dryRunFlag)
	} else {
		maxAge := proj.cfg.Archive.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		pruned, err = cleanup.PruneByAge(ctx, store, reportsDir, maxAge, time.Now(), dryRunFlag)
	}
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(pruned) == 0 {
		fmt.Fprintln(out, "No sessions to clean up.")
		return nil
	}

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	for _, id := range pruned {
		fmt.Fprintf(out, "  %s %s\n", verb, id)
	}
	fmt.Fprintf(out, "%s %d session(s).\n", verb, len(pruned))
	return nil
}
