package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/keyring"
)

var (
	createMode     string
	createRemember bool
)

func init() {
	createCmd.Flags().StringVarP(&createMode, "mode", "m", "", "investigation mode recorded in the session metadata")
	createCmd.Flags().BoolVar(&createRemember, "remember", false, "store the passphrase in the OS keyring")
	RootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new encrypted investigation session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		mode := createMode
		if mode == "" {
			mode = cfg.Store.DefaultMode
		}

		passphrase, err := newPassphrase()
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		sess, err := store.Create(name, passphrase, mode)
		if err != nil {
			return err
		}
		defer sess.Close()

		if createRemember && cfg.Keyring.Enabled {
			if err := keyring.SavePassphrase(sess.ID(), string(passphrase)); err != nil {
				Logger.Warnf("could not store passphrase in keyring: %v", err)
			} else {
				Logger.Infof("passphrase stored in OS keyring for %s", sess.ID())
			}
		}

		fmt.Printf("%s session %s created\n", color.GreenString("✓"), color.CyanString(sess.ID()))
		return nil
	},
}
