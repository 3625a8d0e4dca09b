package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/instruct/internal/config"
	"github.com/reoring/instruct/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the flags shared by every subcommand.
type app struct {
	cfgPath string
	verbose bool
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "instruct",
		Short:         "Compile field-list schemas, validate data and run structured completions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path (default ~/.instruct/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newInitCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newCompleteCmd(a))
	root.AddCommand(newMCPCmd(a))
	return root
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", path)
				return nil
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			cfg := &config.Config{}
			cfg.SetDefaults()
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			fmt.Fprintln(cmd.OutOrStdout(), "set llm.api_key or OPENAI_API_KEY / ANTHROPIC_API_KEY before running completions")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			log := cfg.NewLogger()
			srv, err := server.New(cfg, log)
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(sigCtx)
			g.Go(func() error { return srv.Start(ctx) })
			g.Go(func() error {
				<-ctx.Done()
				if errors.Is(sigCtx.Err(), context.Canceled) {
					log.WithField("timeout", cfg.Server.ShutdownTimeout).Info("signal received")
				}
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override server.host")
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}

// quietLogger is used by one-shot commands unless --verbose is set.
func quietLogger(cfg *config.Config, verbose bool) logrus.FieldLogger {
	l := cfg.NewLogger()
	l.SetOutput(os.Stderr)
	if !verbose {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}
