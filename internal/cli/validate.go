package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/twingest/internal/bindings"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [bindings-file]",
		Short: "Validate a bindings file",
		Long: `Validate a gesture and voice bindings file against the schema, then build
every detector and compile every condition and voice pattern.

Without a file the built-in bindings are checked.

Examples:
  twingest validate bindings.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				set *bindings.Set
				err error
			)
			if len(args) == 0 {
				set = bindings.Default()
			} else {
				set, err = bindings.LoadFile(args[0])
			}
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ Bindings invalid")
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d gestures, %d voice commands\n", len(set.Gestures), len(set.Voice))
			return nil
		},
	}
	return cmd
}
