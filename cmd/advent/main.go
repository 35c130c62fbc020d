package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"svw.info/advent/internal/config"
	"svw.info/advent/internal/infrastructure/storage"
	"svw.info/advent/internal/ports"
)

var (
	storeFlag    string
	dataDirFlag  string
	logLevelFlag string

	rootCmd = &cobra.Command{
		Use:           "advent",
		Short:         "Advent calendar puzzle hunt: progression service and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&storeFlag, "store", "", "storage backend: fs|sqlite|badger|memory (env ADVENT_STORE)")
	pf.StringVar(&dataDirFlag, "data-dir", "", "directory holding persisted progress (env ADVENT_DATA_DIR)")
	pf.StringVar(&logLevelFlag, "log-level", "", "debug|info|warn|error (env ADVENT_LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd, statusCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies any flag the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = storeFlag
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDirFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Addr = addrFlag
	}
	if flags.Lookup("catalog") != nil && flags.Changed("catalog") {
		cfg.Catalog = catalogFlag
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openedStore is a store plus what is needed to shut it down. fs is set only
// for the file backend, which is the one that can be watched.
type openedStore struct {
	store ports.Store
	fs    *storage.FS
	close func() error
}

func openStore(cfg config.Config, logger *slog.Logger) (openedStore, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "progress.db"))
		if err != nil {
			return openedStore{}, err
		}
		return openedStore{store: s, close: s.Close}, nil
	case config.StoreBadger:
		bc := storage.DefaultBadgerConfig(filepath.Join(cfg.DataDir, "badger"))
		bc.Logger = logger
		s, err := storage.OpenBadger(bc)
		if err != nil {
			return openedStore{}, err
		}
		return openedStore{store: s, close: s.Close}, nil
	case config.StoreMemory:
		return openedStore{store: storage.NewMemory(), close: noop}, nil
	default:
		s := storage.NewFS(cfg.DataDir)
		return openedStore{store: s, fs: s, close: noop}, nil
	}
}
