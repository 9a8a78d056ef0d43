package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casefile-dev/casefile/internal/document"
	"github.com/casefile-dev/casefile/internal/report"
	"github.com/casefile-dev/casefile/internal/session"
)

var (
	writeJSON  bool
	appendJSON bool
)

func init() {
	writeCmd.Flags().BoolVar(&writeJSON, "json", false, "parse the value as JSON instead of plain text")
	appendCmd.Flags().BoolVar(&appendJSON, "json", false, "parse the value as JSON instead of plain text")
	RootCmd.AddCommand(writeCmd)
	RootCmd.AddCommand(readCmd)
	RootCmd.AddCommand(appendCmd)
}

var writeCmd = &cobra.Command{
	Use:   "write <session-id> <section> [value]",
	Short: "Replace a scratchpad section",
	Long: `Writes a value into the named scratchpad section, replacing whatever was
there. The value is taken from the argument, or from stdin when omitted.
Plain text becomes a string; pass --json for structured values.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := valueFromArgs(args, writeJSON)
		if err != nil {
			return err
		}
		return withSession(args[0], func(sess *session.Session) error {
			sess.Scratchpad().Write(args[1], value)
			if err := sess.SaveScratchpad(); err != nil {
				return err
			}
			fmt.Printf("%s section %s written\n", color.GreenString("✓"), args[1])
			return nil
		})
	},
}

var appendCmd = &cobra.Command{
	Use:   "append <session-id> <section> [value]",
	Short: "Append a value to a scratchpad section",
	Long: `Appends to the named section: sequences grow by one element, mappings
merge keys from a mapping value, and an absent section is created. Appending
to a scalar section fails; use write to replace it.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := valueFromArgs(args, appendJSON)
		if err != nil {
			return err
		}
		return withSession(args[0], func(sess *session.Session) error {
			if err := sess.Scratchpad().Append(args[1], value); err != nil {
				return err
			}
			if err := sess.SaveScratchpad(); err != nil {
				return err
			}
			fmt.Printf("%s appended to %s\n", color.GreenString("✓"), args[1])
			return nil
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read <session-id> <section>",
	Short: "Print a scratchpad section",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(args[0], func(sess *session.Session) error {
			value, err := sess.Scratchpad().Read(args[1])
			if err != nil {
				return err
			}
			fmt.Print(report.RenderValue(value))
			return nil
		})
	},
}

// withSession resolves the passphrase, resumes the session, loads the
// scratchpad and hands the open session to fn.
func withSession(id string, fn func(*session.Session) error) error {
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

	if err := sess.LoadScratchpad(); err != nil {
		return err
	}
	return fn(sess)
}

// valueFromArgs builds the section value from the trailing argument or, when
// absent, from stdin.
func valueFromArgs(args []string, asJSON bool) (document.Value, error) {
	var raw []byte
	if len(args) >= 3 {
		raw = []byte(args[2])
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return document.Value{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = data
	}

	if !asJSON {
		return document.StringValue(string(raw)), nil
	}

	var value document.Value
	if err := json.Unmarshal(raw, &value); err != nil {
		return document.Value{}, fmt.Errorf("invalid JSON value: %w", err)
	}
	return value, nil
}
