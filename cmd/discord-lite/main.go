package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thereayou/discord-lite-web/cmd/server"
	"github.com/thereayou/discord-lite-web/internal/config"
	"github.com/thereayou/discord-lite-web/internal/logging"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:           "discord-lite",
		Short:         "Discord Lite web panel",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if !config.LoadEnvFiles() {
				fmt.Fprintln(os.Stderr, ".env not found, using environment variables")
			}
		},
	}
	root.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	root.PersistentFlags().String("log-file", "", "also write logs to this file")
	v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))
	v.BindPFlag(config.KeyLogFile, root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(newServeCmd(v), newMigrateCmd(v))
	return root
}

func setup(v *viper.Viper) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	sugar, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, sugar, nil
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, sugar, err := setup(v)
			if err != nil {
				return err
			}
			defer sugar.Sync()

			srv, err := server.NewServer(cfg, sugar)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("port", "8080", "HTTP port")
	cmd.Flags().Bool("self-contained", false, "run on in-memory storage without postgres or redis")
	v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	v.BindPFlag(config.KeySelfContained, cmd.Flags().Lookup("self-contained"))
	return cmd
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(*cobra.Command, []string) error {
			cfg, sugar, err := setup(v)
			if err != nil {
				return err
			}
			defer sugar.Sync()
			if cfg.SelfContained {
				return fmt.Errorf("nothing to migrate in self-contained mode")
			}

			db, err := server.OpenDatabase(cfg, sugar)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}
			sugar.Info("Migrations applied")
			return nil
		},
	}
}
