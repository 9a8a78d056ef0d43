package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions without decrypting them",
	Long: `Lists every session in the store. Only ids and timestamps are shown;
names and status live inside the encrypted metadata and require a resume.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		summaries, err := store.List()
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("no sessions")
			return nil
		}

		for _, sum := range summaries {
			fmt.Printf("%s  created %s  updated %s\n",
				color.CyanString(sum.ID),
				sum.Created.Local().Format("2006-01-02 15:04"),
				sum.Updated.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}
