package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-vj/patchbay/internal/persist"
	"github.com/patchbay-vj/patchbay/internal/render"
	"github.com/patchbay-vj/patchbay/internal/store"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the state document",
		Long:  "Write the current state document as JSON to stdout or a file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			doc, _, err := persist.Load(cfg.Document.Path)
			if err != nil {
				return err
			}
			data, err := persist.Serialize(doc)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a state document",
		Long:  "Validate a state document and install it as the current state.\nLegacy formats are migrated on the way in.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, migrated, err := persist.Parse(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			// Round-trip the document through a headless store so each
			// entry gets the same validation a running daemon applies.
			st := store.New(render.NewManager(render.NullCompiler{}))
			report := st.ImportDocument(context.Background(), doc)
			report.Migrated = report.Migrated || migrated

			if err := persist.Write(cfg.Document.Path, st.ExportDocument()); err != nil {
				return err
			}

			fmt.Println(report.Summary())
			return nil
		},
	}

	return cmd
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate a legacy state document in place",
		Long:  "Read the state document, upgrade legacy formats to the current\nversion and write it back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			doc, migrated, err := persist.Load(cfg.Document.Path)
			if err != nil {
				return err
			}
			if !migrated {
				fmt.Println("document already at current version")
				return nil
			}
			if dryRun {
				fmt.Println("document needs migration (dry run, nothing written)")
				return nil
			}
			if err := persist.Write(cfg.Document.Path, doc); err != nil {
				return err
			}
			fmt.Printf("migrated %s to version %d\n", cfg.Document.Path, persist.CurrentVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing")

	return cmd
}
