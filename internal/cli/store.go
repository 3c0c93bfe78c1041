package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/blob"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
)

// storeCommand creates the blob store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage blobs in the configured store",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [prefix]",
		Short: "List stored blobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) > 0 {
				prefix = args[0]
			}
			store, err := c.newBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No blobs stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderBlobTable(infos))
			return nil
		},
	}
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Download a blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errors.ValidateBlobName(name); err != nil {
				return err
			}
			store, err := c.newBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			data, ok, err := store.Get(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "blob not found: %s", name)
			}
			if output == "" {
				output = filepath.Base(name)
			}
			if err := sink.WriteFile(output, data); err != nil {
				return err
			}
			printSuccess("Downloaded %s", name)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default the blob's base name)")

	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if os.IsNotExist(err) {
				return errors.New(errors.ErrCodeFileNotFound, "file not found: %s", args[0])
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeIO, err, "read %s", args[0])
			}
			if name == "" {
				name = blob.NewName("uploads", filepath.Ext(args[0]))
			}
			store, err := c.newBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			url, err := store.Put(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			printSuccess("Stored %s", name)
			printKeyValue("url", StyleLink.Render(url))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "blob name (default uploads/<uuid><ext>)")

	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newBlobStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			ok, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				printWarning("No blob named %s", args[0])
				return nil
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

// renderBlobTable renders blob infos as a table.
func renderBlobTable(infos []blob.Info) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.Name,
			info.ContentType,
			formatSize(info.Size),
			info.UpdatedAt.Format("2006-01-02 15:04"),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("Name", "Type", "Size", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorValue)
			}
			return lipgloss.NewStyle().Foreground(colorMuted)
		}).
		Render()
}

// formatSize renders a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
