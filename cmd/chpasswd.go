package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/keyring"
)

func init() {
	RootCmd.AddCommand(chpasswdCmd)
}

var chpasswdCmd = &cobra.Command{
	Use:   "chpasswd <session-id>",
	Short: "Change a session's passphrase",
	Long: `Re-encrypts the whole session under a key derived from a new passphrase
and a fresh salt. Bundles exported before the change still open with the
old passphrase.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		id := args[0]

		oldPassphrase, err := readPassphrase("Current passphrase: ")
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(oldPassphrase)

		newPass, err := readPassphraseConfirm()
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(newPass)

		if err := store.ChangePassphrase(id, oldPassphrase, newPass); err != nil {
			return err
		}

		// A cached old passphrase would no longer open the session.
		if cfg.Keyring.Enabled && keyring.HasPassphrase(id) {
			if err := keyring.SavePassphrase(id, string(newPass)); err != nil {
				Logger.Warnf("could not update keyring entry: %v", err)
			}
		}

		fmt.Printf("%s passphrase changed for %s\n", color.GreenString("✓"), id)
		return nil
	},
}
