package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/document"
	"github.com/casefile-dev/casefile/internal/report"
	"github.com/casefile-dev/casefile/internal/session"
)

func init() {
	RootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <session-id> <section> <file>",
	Short: "Diff a scratchpad section against a proposed JSON value",
	Long: `Compares the stored section with the JSON document in file and prints a
unified diff of the rendered forms. Useful for reviewing what a write would
change before committing to it.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[2], err)
		}
		var proposed document.Value
		if err := json.Unmarshal(raw, &proposed); err != nil {
			return fmt.Errorf("invalid JSON in %s: %w", args[2], err)
		}

		return withSession(args[0], func(sess *session.Session) error {
			current, err := sess.Scratchpad().Read(args[1])
			if err != nil {
				return err
			}
			diff := report.SectionDiff(args[1], current, proposed)
			if diff == "" {
				fmt.Println("no changes")
				return nil
			}
			fmt.Print(diff)
			return nil
		})
	},
}
