package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sessionCommand creates the session command, which inspects the record
// of the latest generate/convert/remove-bg run.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or clear the latest session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the latest session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := c.newSessionStore()
			if err != nil {
				return err
			}
			sess, err := sessions.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if sess.GeneratedImage == "" && sess.SVG == "" && sess.Editable == "" && sess.NoBackground == "" {
				printInfo("Session is empty")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), sess.Summary())
			printDetail("File: %s", sessions.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the latest session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := c.newSessionStore()
			if err != nil {
				return err
			}
			if err := sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Cleared session")
			return nil
		},
	})

	return cmd
}
