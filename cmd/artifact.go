package cmd

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/session"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Store and retrieve encrypted raw artifacts",
	Long: `Artifacts are raw collector output (logs, metrics, traces) stored
encrypted alongside the scratchpad. Each artifact belongs to one of the
kinds: logs, metrics, traces.`,
}

func init() {
	artifactCmd.AddCommand(artifactPutCmd)
	artifactCmd.AddCommand(artifactGetCmd)
	artifactCmd.AddCommand(artifactLsCmd)
	RootCmd.AddCommand(artifactCmd)
}

var artifactPutCmd = &cobra.Command{
	Use:   "put <session-id> <kind> <name> <file>",
	Short: "Encrypt a file into the session",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[3])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[3], err)
		}
		defer memguard.WipeBytes(data)

		return withArtifactSession(args[0], func(sess *session.Session) error {
			if err := sess.StoreArtifact(args[1], args[2], data); err != nil {
				return err
			}
			fmt.Printf("%s stored %s/%s\n", color.GreenString("✓"), args[1], args[2])
			return nil
		})
	},
}

var artifactGetCmd = &cobra.Command{
	Use:   "get <session-id> <kind> <name>",
	Short: "Decrypt an artifact to stdout",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArtifactSession(args[0], func(sess *session.Session) error {
			data, err := sess.ReadArtifact(args[1], args[2])
			if err != nil {
				return err
			}
			defer memguard.WipeBytes(data)
			_, err = os.Stdout.Write(data)
			return err
		})
	},
}

var artifactLsCmd = &cobra.Command{
	Use:   "ls <session-id> [kind]",
	Short: "List stored artifacts",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := []string{session.ArtifactLogs, session.ArtifactMetrics, session.ArtifactTraces}
		if len(args) == 2 {
			kinds = []string{args[1]}
		}
		return withArtifactSession(args[0], func(sess *session.Session) error {
			for _, kind := range kinds {
				names, err := sess.ListArtifacts(kind)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Printf("%s/%s\n", kind, name)
				}
			}
			return nil
		})
	},
}

// withArtifactSession is withSession without the scratchpad load; artifact
// operations never touch the scratchpad.
func withArtifactSession(id string, fn func(*session.Session) error) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}

	passphrase, err := getPassphrase(cfg, id)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(passphrase)

	sess, err := store.Resume(id, passphrase)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}
