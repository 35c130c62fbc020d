package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/progress"
	"svw.info/advent/internal/usecase"
)

var (
	resetYes bool

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the unlock state of every puzzle",
		RunE:  runStatus,
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Wipe all persisted progress",
		RunE:  runReset,
	}
)

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the wipe")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	engine := progress.New(st.store, progress.WithLogger(logger))
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PUZZLE\tUNLOCKS\tSTATE\tLOCK REASON\tGUESSES")
	for _, s := range engine.Statuses(cmd.Context()) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", s.Ordinal, s.UnlockDate.Format(time.DateOnly), s.State, s.LockReason, s.Guesses)
	}
	return tw.Flush()
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return errors.New("refusing to wipe progress without --yes")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	keys := domain.DefaultKeys()
	engine := progress.New(st.store, progress.WithKeys(keys), progress.WithLogger(logger))
	uc := usecase.NewService(engine, nil, nil, nil, st.store, keys, logger)
	if err := uc.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "progress wiped")
	return nil
}
