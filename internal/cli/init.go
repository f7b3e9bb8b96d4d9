// init.go implements the "cutover init" command with optional --guided flag.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cutover in the current directory",
	Long: `Create .cutover/config.yaml with default settings and add the runtime
files (event log, archive, debriefs) to .gitignore.`,
	RunE: runInit,
}

var guidedFlag bool

func init() {
	initCmd.Flags().BoolVar(&guidedFlag, "guided", false, "Interactive prompts for configuration overrides")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	configPath := filepath.Join(dir, ".cutover", "config.yaml")
	if _, statErr := os.Stat(configPath); statErr == nil {
		fmt.Fprintln(out, "Warning: .cutover/config.yaml already exists.")
		fmt.Fprint(out, "Overwrite? [y/N]: ")
		answer, _ := in.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if guidedFlag {
		guidedOverrides(in, out, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Cutover initialized")
	fmt.Fprintln(out, "Configuration written to .cutover/config.yaml")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. export OPENAI_API_KEY=... (or set llm.provider to claude or scripted)")
	fmt.Fprintln(out, "  2. Run: cutover play")
	return nil
}

// guidedOverrides prompts for the settings players most often change.
// Blank or unparsable answers keep the default.
func guidedOverrides(in *bufio.Reader, out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Guided Configuration ---")

	ask := func(label, current string) string {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
		answer, err := in.ReadString('\n')
		if err != nil && answer == "" {
			return ""
		}
		return strings.TrimSpace(answer)
	}
	askInt := func(label string, target *int) {
		if v := ask(label, strconv.Itoa(*target)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	if v := ask("LLM provider (openai, claude, scripted)", cfg.LLM.Provider); v != "" {
		cfg.LLM.Provider = v
	}
	if v := ask("Model", cfg.LLM.Model); v != "" {
		cfg.LLM.Model = v
	}
	askInt("Maximum rounds", &cfg.Simulation.MaxRounds)
	askInt("Weeks left until the deadline", &cfg.Baseline.WeeksLeft)
	if v := ask("Budget level (low, medium, high)", cfg.Baseline.BudgetLevel); v != "" {
		cfg.Baseline.BudgetLevel = v
	}

	fmt.Fprintln(out, "--- End Guided Configuration ---")
	fmt.Fprintln(out)
}

// ensureGitignore creates or appends to .gitignore with the runtime files
// that should never be committed. Entries already present are skipped.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	requiredEntries := []string{
		".env",
		".cutover/log.jsonl",
		".cutover/history.db",
		".cutover/reports/",
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by cutover init\n")
	}
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
