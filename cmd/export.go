package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/session"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "bundle path (default <session-id>.csf)")
	RootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as a portable encrypted bundle",
	Long: `Packs the whole session into a single encrypted bundle file. The bundle
opens with the session's passphrase on any machine; the original session is
left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		dest := exportOutput
		if dest == "" {
			dest = args[0] + session.BundleExt
		}

		passphrase, err := getPassphrase(cfg, args[0])
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		if err := store.Export(args[0], passphrase, dest); err != nil {
			return err
		}

		fmt.Printf("%s session %s exported to %s\n", color.GreenString("✓"), args[0], dest)
		return nil
	},
}
