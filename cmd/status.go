package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/session"
)

func init() {
	RootCmd.AddCommand(completeCmd)
	RootCmd.AddCommand(failCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Mark a session completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateStatus(args[0], session.StatusCompleted)
	},
}

var failCmd = &cobra.Command{
	Use:   "fail <session-id>",
	Short: "Mark a session failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateStatus(args[0], session.StatusFailed)
	},
}

func updateStatus(id string, status session.Status) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}

	passphrase, err := getPassphrase(cfg, id)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(passphrase)

	if err := store.UpdateStatus(id, passphrase, status); err != nil {
		return err
	}

	fmt.Printf("%s session %s marked %s\n", color.GreenString("✓"), id, status)
	return nil
}
