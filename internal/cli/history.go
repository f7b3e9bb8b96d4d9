// history.go implements the "cutover history" command listing archived
// sessions.
package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished sessions",
	Long:  `List archived sessions, most recently finished first.`,
	RunE:  runHistory,
}

var limitFlag int

func init() {
	historyCmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of sessions to list (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	list, err := store.List(cmd.Context(), limitFlag)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No finished sessions yet. Start one with: cutover play")
		return nil
	}
	return printHistory(cmd.OutOrStdout(), list)
}

func printHistory(w io.Writer, list []archive.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDED\tSESSION\tPLAYER\tMODULE\tSTRATEGY\tSCORE\tRISK\tROUNDS")
	for _, s := range list {
		player := s.UserID
		if player == "" {
			player = "-"
		}
		strategy := s.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/10\t%d\t%d\n",
			s.EndedAt.Local().Format("2006-01-02 15:04"), s.ID, player, s.Module, strategy, s.Score, s.RiskScore, s.Rounds)
	}
	return tw.Flush()
}
