package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/patchbay-vj/patchbay/internal/broker"
	"github.com/patchbay-vj/patchbay/internal/config"
	"github.com/patchbay-vj/patchbay/internal/logging"
	"github.com/patchbay-vj/patchbay/internal/media"
	"github.com/patchbay-vj/patchbay/internal/models"
	"github.com/patchbay-vj/patchbay/internal/persist"
	"github.com/patchbay-vj/patchbay/internal/render"
	"github.com/patchbay-vj/patchbay/internal/store"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		addr      string
		outputURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Patchbay daemon",
		Long:  "Load the state document, start the remote server and the\noutput push channel, and run until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Remote.Addr = addr
				cfg.Remote.Enabled = true
			}
			if outputURL != "" {
				cfg.Output.URL = outputURL
				cfg.Output.Enabled = true
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "remote server listen address (overrides config)")
	cmd.Flags().StringVar(&outputURL, "output-url", "", "output process websocket URL (overrides config)")

	return cmd
}

// runServe wires the store, persistence, broker and media layers and
// blocks until the context is cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Component("serve")

	renderers := render.NewManager(render.NullCompiler{})
	publisher := broker.NewPublisher()
	defer publisher.Close()

	st := store.New(renderers,
		store.WithTileGrid(cfg.Tiles.Rows, cfg.Tiles.Cols),
		store.WithNotify(publisher.Publish),
	)
	defer renderers.DisposeAll()

	// Restore persisted state. A missing document is a fresh start,
	// not an error.
	doc, migrated, err := persist.Load(cfg.Document.Path)
	if err != nil {
		return err
	}
	report := st.ImportDocument(ctx, doc)
	report.Migrated = report.Migrated || migrated
	logger.Info().
		Str("document", cfg.Document.Path).
		Int("restored", report.Restored).
		Int("failed", len(report.Failed)).
		Bool("migrated", report.Migrated).
		Msg("state restored")

	// Debounced saves, flushed on shutdown. A migrated document is
	// written back immediately so the legacy file is upgraded once.
	saver := persist.NewSaver(cfg.Document.Debounce(), func() error {
		return persist.Write(cfg.Document.Path, st.ExportDocument())
	})
	defer saver.Close()
	if report.Migrated {
		if err := saver.Flush(); err != nil {
			logger.Warn().Err(err).Msg("failed to write migrated document")
		}
	}
	if err := publisher.Subscribe("saver", broker.Filter{}, func(models.Change) {
		saver.Request()
	}); err != nil {
		return err
	}

	library, err := media.Open(cfg.Media.Dir)
	if err != nil {
		return err
	}
	defer library.Close()

	group, ctx := errgroup.WithContext(ctx)

	if cfg.Remote.Enabled {
		server := broker.NewServer(st, cfg.Remote.Addr, broker.WithMediaLibrary(library))
		if err := publisher.Subscribe("remote", broker.Filter{}, func(models.Change) {
			server.NotifyStateChanged()
		}); err != nil {
			return err
		}
		group.Go(func() error {
			return server.Serve(ctx)
		})
	}

	if cfg.Output.Enabled {
		conn, err := broker.DialOutput(cfg.Output.URL)
		if err != nil {
			// The output process may start later; run without it
			// rather than refusing to start.
			logger.Warn().Err(err).Str("url", cfg.Output.URL).Msg("output process unreachable")
		} else {
			pusher := broker.NewPusher(st, conn, cfg.Output.BatchWindow())
			if err := publisher.Subscribe("output", broker.Filter{}, pusher.HandleChange); err != nil {
				return err
			}
			group.Go(func() error {
				pusher.Run(ctx)
				return nil
			})
		}
	}

	if cfg.Media.WatchSources {
		watcher, err := media.NewWatcher(func(ctx context.Context, tab, slot int, content string) {
			st.ReloadSlot(ctx, tab, slot, content)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("source watching unavailable")
		} else {
			registerSourceWatches(st, watcher, logger)
			group.Go(func() error {
				watcher.Run(ctx)
				return nil
			})
		}
	}

	logger.Info().
		Str("addr", cfg.Remote.Addr).
		Bool("output", cfg.Output.Enabled).
		Msg("patchbayd running")

	<-ctx.Done()
	err = group.Wait()

	if flushErr := saver.Flush(); flushErr != nil {
		logger.Error().Err(flushErr).Msg("failed to save state on shutdown")
		if err == nil {
			err = flushErr
		}
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// registerSourceWatches watches the source file of every slot that was
// loaded from one, so edits on disk reload the slot live.
func registerSourceWatches(st *store.Store, watcher *media.Watcher, logger zerolog.Logger) {
	snap := st.Snapshot()
	for tabIndex, tab := range snap.Tabs {
		for slotIndex, summary := range tab.Slots {
			if !summary.Occupied {
				continue
			}
			slot, ok := st.SlotData(tabIndex, slotIndex)
			if !ok || slot.SourcePath == "" {
				continue
			}
			if err := watcher.Watch(slot.SourcePath, tabIndex, slotIndex); err != nil {
				logger.Warn().Err(err).Str("path", slot.SourcePath).Msg("cannot watch source file")
			}
		}
	}
}
