// play.go implements the "cutover play" command: one simulation session in
// the terminal chat, or a line REPL when stdout is not a terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/archive"
	"github.com/berth-dev/cutover/internal/report"
	"github.com/berth-dev/cutover/internal/simulation"
	"github.com/berth-dev/cutover/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one migration planning session",
	Long: `Start a session: read the scenario, then answer the stakeholders until
the final review. Type exit, quit or q to leave early. Finished sessions
are archived and exported as a markdown debrief.`,
	RunE: runPlay,
}

var (
	userFlag    string
	offlineFlag bool
	plainFlag   bool
)

func init() {
	playCmd.Flags().StringVar(&userFlag, "user", "", "Player label stored with the session")
	playCmd.Flags().BoolVar(&offlineFlag, "offline", false, "Play without a model (keyword extraction, profile replies)")
	playCmd.Flags().BoolVar(&plainFlag, "plain", false, "Use the line prompt even in a terminal")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	proj, err := loadProject()
	if err != nil {
		return err
	}
	ctrl, err := proj.newController(offlineFlag)
	if err != nil {
		return err
	}

	sess, intro, err := ctrl.Start(ctx, userFlag)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	out := cmd.OutOrStdout()
	if tui.IsTTY() && !plainFlag {
		m := tui.NewChatModel(ctx, tui.Game{Ctrl: ctrl, Session: sess}, sess.Scenario().Module, intro, sess.RoundInfo())
		if _, err := tui.Run(m); err != nil {
			return fmt.Errorf("running chat: %w", err)
		}
	} else {
		fmt.Fprintln(out, intro)
		if err := runREPL(ctx, cmd.InOrStdin(), out, ctrl, sess); err != nil {
			return err
		}
	}

	if sess.Phase() != simulation.PhaseEnded {
		fmt.Fprintln(out, "Session abandoned. Nothing was archived.")
		return nil
	}
	return proj.finish(ctx, out, sess)
}

// runREPL reads one message per line until the session ends, input runs
// out or the player types a quit word. Extraction and persona failures
// are reported and the player is asked to try again.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, ctrl *simulation.Controller, sess *simulation.Session) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if sess.RoundInfo().InFinalReview() {
			fmt.Fprintln(out, "[Final Review Round]")
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		switch strings.ToLower(text) {
		case "exit", "quit", "q":
			return nil
		}

		turn, err := ctrl.Submit(ctx, sess, text)
		var (
			extErr     *simulation.ExtractionError
			personaErr *simulation.PersonaError
		)
		switch {
		case errors.As(err, &extErr):
			fmt.Fprintf(out, "Could not read that message (%v). Please rephrase and send it again.\n", extErr.Err)
			continue
		case errors.As(err, &personaErr):
			fmt.Fprintf(out, "%s did not answer (%v). Your message was kept; send a follow-up to continue.\n", personaErr.Persona, personaErr.Err)
			continue
		case err != nil:
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, turn.Response)
		fmt.Fprintln(out)
		if turn.Ended {
			return nil
		}
	}
}

// finish archives an ended session and exports its debrief.
func (p *project) finish(ctx context.Context, out io.Writer, sess *simulation.Session) error {
	store, err := p.openArchive()
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	rep, _ := sess.Report()
	if err := store.Save(ctx, sess.Snapshot(), rep); err != nil {
		return fmt.Errorf("archiving session: %w", err)
	}
	path, err := p.exportReport(ctx, store, sess.ID())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session %s archived. Debrief written to %s\n", sess.ID(), path)
	return nil
}

// exportReport writes the markdown debrief of an archived session.
func (p *project) exportReport(ctx context.Context, store *archive.Store, id string) (string, error) {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	events, err := p.events.ReadSession(id)
	if err != nil {
		p.logger.Warn("reading event log failed", "session", id, "error", err)
	}
	return report.WriteReport(p.path(p.cfg.Archive.ReportsDir), report.Generate(rec, events))
}
