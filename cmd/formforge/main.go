package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-formforge/internal/config"
	"github.com/goliatone/go-formforge/internal/logging"
	"github.com/goliatone/go-formforge/pkg/builder"
	"github.com/goliatone/go-formforge/pkg/store"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	v        *viper.Viper
	settings config.Config
	logger   *zap.Logger
	out      io.Writer
}

func main() {
	app := &cli{v: config.New(), logger: zap.NewNop(), out: os.Stdout}
	root := app.rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formforge",
		Short: "Build, store and fill forms from the terminal",
		Long: `formforge manages form definitions in a local workspace.

Forms are made of typed fields with validation rules; date fields can feed
derived fields such as an age. Definitions are stored in the workspace
database and can be exported as JSON, YAML or an OpenAPI payload schema.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(c.v)
			if err != nil {
				return err
			}
			logger, err := logging.New(settings.Log.Level, settings.Log.Dev)
			if err != nil {
				return err
			}
			c.settings = settings
			c.logger = logger
			c.out = cmd.OutOrStdout()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.String("store-driver", store.DriverSQLite, "form store driver (memory, sqlite, bolt)")
	flags.String("store-path", "", "form database path (defaults inside the workspace)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("log-dev", false, "human readable logs")
	flags.Bool("json", false, "output JSON")
	_ = c.v.BindPFlag(config.KeyWorkspace, flags.Lookup("workspace"))
	_ = c.v.BindPFlag(config.KeyStoreDriver, flags.Lookup("store-driver"))
	_ = c.v.BindPFlag(config.KeyStorePath, flags.Lookup("store-path"))
	_ = c.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = c.v.BindPFlag(config.KeyLogDev, flags.Lookup("log-dev"))
	_ = c.v.BindPFlag("json", flags.Lookup("json"))

	root.AddCommand(c.formCmd())
	root.AddCommand(c.formulaCmd())
	return root
}

// withLibrary opens the configured store for the duration of fn.
func (c *cli) withLibrary(ctx context.Context, fn func(ctx context.Context, lib *builder.Library) error) error {
	s, err := store.Open(ctx, c.settings.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", c.settings.Store.Driver, err)
	}
	if closer, ok := s.(store.Closer); ok {
		defer closer.Close()
	}
	c.logger.Debug("store opened",
		zap.String("driver", c.settings.Store.Driver),
		zap.String("path", c.settings.Store.Path))
	return fn(ctx, builder.NewLibrary(s, builder.WithLogger(c.logger)))
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
