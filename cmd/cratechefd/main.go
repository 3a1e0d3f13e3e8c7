// Command cratechefd serves the read-only HTTP API over the track library.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cratechef/internal/api"
	"cratechef/internal/config"
	"cratechef/internal/logging"
	"cratechef/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var bind string

	cmd := &cobra.Command{
		Use:           "cratechefd",
		Short:         "Serve library stats and recent transitions over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind = strings.TrimSpace(bind); bind != "" {
				cfg.API.Bind = bind
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return serve(cmd.Context(), cfg, logger, nil)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides api.bind)")
	return cmd
}

// serve runs the API until ctx is done. ready, when set, receives the bound
// address once the listener is up.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ready func(addr string)) error {
	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	srv, err := api.NewServer(cfg, st, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()

	logger.Info("cratechefd started",
		logging.String("database", st.Path()),
		logging.String("address", srv.Addr()),
	)
	if ready != nil {
		ready(srv.Addr())
	}

	<-ctx.Done()
	logger.Info("cratechefd shutting down")
	return nil
}
