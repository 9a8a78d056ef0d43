package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/keyring"
)

func init() {
	RootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a session permanently",
	Long: `Deletes the session directory and everything in it. No passphrase is
required and there is no undo; export first if the data might matter later.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		if err := store.Delete(args[0]); err != nil {
			return err
		}

		if cfg.Keyring.Enabled && keyring.HasPassphrase(args[0]) {
			if err := keyring.DeletePassphrase(args[0]); err != nil {
				Logger.Warnf("could not remove keyring entry: %v", err)
			}
		}

		fmt.Printf("%s session %s deleted\n", color.GreenString("✓"), args[0])
		return nil
	},
}
