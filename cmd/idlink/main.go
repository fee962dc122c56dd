package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/idlink/internal/app"
	"github.com/dropDatabas3/idlink/internal/audit"
	"github.com/dropDatabas3/idlink/internal/config"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

var version = "dev"

type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
	log        *zap.Logger
}

func main() {
	c := &cli{configPath: os.Getenv("CONFIG_PATH")}

	root := &cobra.Command{
		Use:           "idlink",
		Short:         "Login federado OAuth2 (Authorization Code + PKCE) contra un directorio local",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "Archivo YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Archivo .env opcional")

	root.AddCommand(c.serveCmd(), c.migrateCmd(), c.statesCmd(), c.auditCmd(), c.discoverCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (c *cli) load() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", c.envFile, err)
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: cfg.App.Name, Version: cfg.App.Version})
	c.cfg, c.log = cfg, logger.L()
	return nil
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP y la retención de auditoría",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = logger.Sync() }()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, c.cfg, app.Deps{Logger: c.log})
			if err != nil {
				return err
			}
			defer a.Close()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.Serve(ctx) })
			g.Go(func() error { return a.Retention.Run(ctx) })
			return g.Wait()
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requires storage.driver=postgres (got %q)", c.cfg.Storage.Driver)
			}
			c.cfg.Storage.Migrate = false
			st, err := app.OpenStorage(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := app.Migrate(cmd.Context(), st.PG)
			if err != nil {
				return err
			}
			fmt.Printf("applied=%v skipped=%d took=%s\n", res.Applied, len(res.Skipped), res.Duration)
			return nil
		},
	}
}

func (c *cli) statesCmd() *cobra.Command {
	states := &cobra.Command{Use: "states", Short: "Autorizaciones pendientes (state -> code_verifier)"}
	states.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Borra todas las autorizaciones pendientes; los logins en curso deberán reiniciarse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := app.OpenCache(c.cfg)
			if err != nil {
				return err
			}
			defer cc.Close()
			n, err := oauth.NewStateStore(cc).Purge(cmd.Context())
			if err != nil {
				return err
			}
			c.log.Info("pending states purged", logger.Count(n))
			fmt.Printf("purged=%d\n", n)
			return nil
		},
	})
	return states
}

func (c *cli) auditCmd() *cobra.Command {
	var days int
	cmdAudit := &cobra.Command{Use: "audit", Short: "Log de actividad del login"}
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Borra eventos más viejos que la retención",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.OpenStorage(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer st.Close()
			if days <= 0 {
				days = c.cfg.Audit.RetentionDays
			}
			n, err := (&audit.Retention{Repo: st.Audit, Days: days, Log: c.log}).PruneOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("pruned=%d\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&days, "days", 0, "Días a conservar (default audit.retention_days)")
	cmdAudit.AddCommand(prune)
	return cmdAudit
}

func (c *cli) discoverCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover <url>",
		Short: "Descarga el documento de discovery del proveedor e imprime los endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			doc, err := oauth.Discover(ctx, oauth.NewHTTPClient(timeout), args[0])
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(doc, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout de la descarga")
	return cmd
}
