package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/patchbay-vj/patchbay/internal/media"
)

func newMediaCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the media library",
		Long:  "Add, list and remove files in the managed media library.",
	}

	cmd.AddCommand(
		newMediaAddCmd(flags),
		newMediaListCmd(flags),
		newMediaRemoveCmd(flags),
	)

	return cmd
}

func openLibrary(flags *rootFlags) (*media.Library, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return media.Open(cfg.Media.Dir)
}

func newMediaAddCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Copy files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(flags)
			if err != nil {
				return err
			}
			defer library.Close()

			for _, path := range args {
				entry, err := library.CopyToLibrary(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("add %s: %w", path, err)
				}
				fmt.Printf("%s\t%s\n", entry.ID, entry.Name)
			}
			return nil
		},
	}
}

func newMediaListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List library entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(flags)
			if err != nil {
				return err
			}
			defer library.Close()

			entries, err := library.Entries(cmd.Context())
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tKIND\tADDED")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
					entry.ID, entry.Name, entry.Kind, entry.AddedAt.Format("2006-01-02 15:04"))
			}
			return writer.Flush()
		},
	}
}

func newMediaRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove library entries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary(flags)
			if err != nil {
				return err
			}
			defer library.Close()

			for _, id := range args {
				if err := library.Remove(cmd.Context(), id); err != nil {
					return fmt.Errorf("remove %s: %w", id, err)
				}
			}
			return nil
		},
	}
}
