// report.go implements the "cutover report" command printing the debrief
// of an archived session.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Show the debrief of a finished session",
	Long: `Display the markdown debrief of an archived session: evaluation, score
breakdown, timing and the full transcript. Without an id the most recently
finished session is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var writeFlag bool

func init() {
	reportCmd.Flags().BoolVar(&writeFlag, "write", false, "Also write the debrief to the reports directory")
}

func runReport(cmd *cobra.Command, args []string) error {
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
	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		latest, err := store.List(ctx, 1)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(latest) == 0 {
			return fmt.Errorf("no finished sessions found; start one with: cutover play")
		}
		id = latest[0].ID
	}

	// Prefer an exported debrief.
	exported := filepath.Join(proj.path(proj.cfg.Archive.ReportsDir), id+".md")
	if !writeFlag {
		if data, err := os.ReadFile(exported); err == nil {
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		}
	}

	rec, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	events, err := proj.events.ReadSession(id)
	if err != nil {
		proj.logger.Warn("reading event log failed", "session", id, "error", err)
	}
	r := report.Generate(rec, events)

	if writeFlag {
		path, err := report.WriteReport(proj.path(proj.cfg.Archive.ReportsDir), r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Debrief written to %s\n", path)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.FormatReport(r))
	return nil
}
