package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	importAs        string
	importOverwrite bool
)

func init() {
	importCmd.Flags().StringVar(&importAs, "as", "", "session id to restore under (default: a fresh id)")
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "replace an existing session with the same id")
	RootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Restore a session from an exported bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		passphrase, err := getPassphrase(cfg, importAs)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		id, err := store.Import(args[0], passphrase, importAs, importOverwrite)
		if err != nil {
			return err
		}

		fmt.Printf("%s bundle restored as session %s\n", color.GreenString("✓"), color.CyanString(id))
		return nil
	},
}
