package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/keyring"
)

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage passphrases cached in the OS keyring",
}

func init() {
	keyringCmd.AddCommand(keyringRememberCmd)
	keyringCmd.AddCommand(keyringForgetCmd)
	RootCmd.AddCommand(keyringCmd)
}

var keyringRememberCmd = &cobra.Command{
	Use:   "remember <session-id>",
	Short: "Store a session's passphrase in the OS keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		id := args[0]

		passphrase, err := readPassphrase("Enter passphrase: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		// Verify before caching so the keyring never holds a wrong value.
		sess, err := store.Resume(id, passphrase)
		if err != nil {
			return err
		}
		sess.Close()

		if err := keyring.SavePassphrase(id, string(passphrase)); err != nil {
			return fmt.Errorf("failed to store passphrase: %w", err)
		}
		fmt.Printf("%s passphrase stored for %s\n", color.GreenString("✓"), id)
		return nil
	},
}

var keyringForgetCmd = &cobra.Command{
	Use:   "forget <session-id>",
	Short: "Remove a session's passphrase from the OS keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !keyring.HasPassphrase(args[0]) {
			fmt.Println("no stored passphrase")
			return nil
		}
		if err := keyring.DeletePassphrase(args[0]); err != nil {
			return fmt.Errorf("failed to remove passphrase: %w", err)
		}
		fmt.Printf("%s passphrase removed for %s\n", color.GreenString("✓"), args[0])
		return nil
	},
}
