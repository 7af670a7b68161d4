package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
	"github.com/sandeepkv93/taskfloat/internal/storage"
	"github.com/sandeepkv93/taskfloat/internal/update"
)

func newUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal UI (the default)",
		Args:  cobra.NoArgs,
		RunE:  o.runUI,
	}
}

// runUI differs from the one-shot commands in two ways: an unreadable
// store is reported in the UI instead of aborting, and continue prompts
// are answered by the user through the bridge.
func (o *options) runUI(cmd *cobra.Command, _ []string) error {
	logPath := o.cfg.ResolvedLogFile()
	if err := ensureDir(logPath); err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "taskfloat")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := log.Default()

	store, err := storage.Open(o.cfg.StoreBackend, o.cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewEngine(o.cfg.SchedulerBuffer)
	sched.Start()
	defer sched.Stop()

	bridge := update.NewBridge()
	opts := o.engineOptions(logger, cmd.OutOrStdout())
	opts.Confirmer = bridge
	opts.Hooks = bridge.Hooks()
	eng := engine.New(store, sched, opts)
	loadErr := eng.Load(ctx)
	eng.Start(ctx)
	go eng.Run(ctx, sched.C())

	program := tea.NewProgram(update.NewModel(eng, o.cfg), tea.WithContext(ctx))
	bridge.Attach(program.Send)
	bridge.Report(loadErr)
	logger.Printf("ui: started with %d task(s) from %s", eng.Len(), o.cfg.StorePath)

	_, runErr := program.Run()
	bridge.Attach(nil)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), closeTimeout)
	defer closeCancel()
	closeErr := eng.Close(closeCtx)
	if closeErr != nil {
		logger.Printf("ui: final save failed: %v", closeErr)
	}
	if errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}
	return errors.Join(runErr, closeErr)
}
