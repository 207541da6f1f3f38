package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/deptrouter/api"
	configx "github.com/tanpawarit/deptrouter/pkg/config"
	logx "github.com/tanpawarit/deptrouter/pkg/logger"
	_ "github.com/tanpawarit/deptrouter/pkg/logger/autoload"
)

func main() {
	if err := newRootCMD().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCMD() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "deptrouter",
		Short:         "Classify chat messages and answer them with the matching department agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configx.SetEnvFile(envFile)
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*logCfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	root.AddCommand(serveCMD(), askCMD(), migrateCMD())
	return root
}

func serveCMD() *cobra.Command {
	var addr string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.cfg.HTTPAddr
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(app.orchestrator, api.WithMetricsHandler(app.metrics.Handler())),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("state_backend", app.cfg.StateBackend).Msg("http server listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownTimeout)
			defer cancel()
			log.Info().Msg("shutting down http server")
			return server.Shutdown(shutdownCtx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default APP_HTTP_ADDR)")

	return serve
}

func askCMD() *cobra.Command {
	var conversationID string

	ask := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run one routing turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.orchestrator.HandleMessage(ctx, conversationID, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("phase=%s: %w", res.Phase, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "conversation: %s\nlabel: %s\n", res.ConversationID, res.Label)
			for _, m := range res.Reply {
				fmt.Fprintf(out, "\n%s\n", m.Content)
			}
			return nil
		},
	}
	ask.Flags().StringVar(&conversationID, "conversation", "cli", "conversation id to load and append to")

	return ask
}

func migrateCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres conversations table",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			log.Info().Msg("postgres schema is up to date")
			return nil
		},
	}
}
