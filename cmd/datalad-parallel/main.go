package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ypid/datalad/internal/config"
	"github.com/ypid/datalad/internal/logger"
	"github.com/ypid/datalad/internal/store"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("reported")

type app struct {
	cfg        *config.Configuration
	v          *viper.Viper
	configFile string

	store  *store.Store
	logger *zap.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, a := newRootCommand()
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		cancel()
		os.Exit(1)
	}
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{
		cfg: config.NewConfigurationWithDefaults(),
		v:   config.NewViper(),
	}

	root := &cobra.Command{
		Use:               "datalad-parallel",
		Short:             "Create datasets in parallel and keep a record of every run",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a configuration file (yaml, toml or json)")
	flags.String("log-format", a.cfg.LogFormat, "Log format: console or json")
	flags.String("log-level", a.cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.String("data-folder", a.cfg.Store.DataFolder, "Folder of the run database; empty keeps runs in memory")
	a.bind("log_format", flags.Lookup("log-format"))
	a.bind("log_level", flags.Lookup("log-level"))
	a.bind("store.data_folder", flags.Lookup("data-folder"))

	root.AddCommand(
		newCreateCommand(a),
		newRunsCommand(a),
		newServeCommand(a),
	)
	return root, a
}

func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag.Name, err))
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(a.v, a.cfg, a.configFile); err != nil {
		return err
	}

	l, err := logger.Setup(a.cfg.LogFormat, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = l
	zap.S().Debugw("configuration loaded", "config", a.cfg.DebugMap())

	path, err := store.DBPath(a.cfg.Store.DataFolder)
	if err != nil {
		return err
	}
	if path == store.MemoryDB && cmd.Name() != "create" {
		pterm.Warning.Println("No data folder configured: only runs of this process are visible")
	}

	db, err := store.NewDB(path)
	if err != nil {
		return err
	}
	a.store = store.NewStore(db)
	if err := a.store.Migrate(cmd.Context()); err != nil {
		a.store.Close()
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
