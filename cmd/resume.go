package cmd

import (
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:     "resume <session-id>",
	Aliases: []string{"show"},
	Short:   "Decrypt a session and display its metadata and section names",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		passphrase, err := getPassphrase(cfg, args[0])
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(passphrase)

		sess, err := store.Resume(args[0], passphrase)
		if err != nil {
			return err
		}
		defer sess.Close()

		meta := sess.Meta()
		fmt.Printf("%s\n", color.CyanString(sess.ID()))
		if meta.Name != "" {
			fmt.Printf("  name:    %s\n", meta.Name)
		}
		if meta.Mode != "" {
			fmt.Printf("  mode:    %s\n", meta.Mode)
		}
		fmt.Printf("  status:  %s\n", meta.Status)
		fmt.Printf("  created: %s\n", meta.Created.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  updated: %s\n", meta.Updated.Local().Format("2006-01-02 15:04:05"))

		if err := sess.LoadScratchpad(); err != nil {
			return err
		}
		sections := sess.Scratchpad().Sections()
		if len(sections) == 0 {
			fmt.Println("  scratchpad: empty")
			return nil
		}
		fmt.Println("  sections:")
		for _, name := range sections {
			fmt.Printf("    %s\n", name)
		}
		return nil
	},
}
