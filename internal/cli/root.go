// Package cli wires the task engine to the command line. The bare command
// opens the terminal UI; subcommands edit the stored list directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskfloat/internal/config"
)

type options struct {
	storePath string
	backend   string
	logFile   string
	cfg       config.RuntimeConfig
}

// resolve layers flags over the environment over the defaults.
func (o *options) resolve() error {
	cfg := config.FromEnv(config.DefaultRuntimeConfig())
	if o.storePath != "" {
		cfg.StorePath = o.storePath
	}
	if o.backend != "" {
		cfg.StoreBackend = o.backend
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "taskfloat",
		Short: "taskfloat - a tiny task list with countdown timers",
		Long: `taskfloat keeps a short task list where any task may carry a countdown
timer. Only one timer runs at a time; when it finishes you are offered the
next timed task. Run without a subcommand to open the terminal UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return o.resolve()
		},
		Args: cobra.NoArgs,
		RunE: o.runUI,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&o.storePath, "store", "", "task store path (env TASKFLOAT_STORE_PATH)")
	flags.StringVar(&o.backend, "backend", "", "store backend: json or sqlite (env TASKFLOAT_STORE_BACKEND)")
	flags.StringVar(&o.logFile, "log-file", "", "log file path (env TASKFLOAT_LOG_FILE)")

	root.AddCommand(
		newUICmd(o),
		newAddCmd(o),
		newListCmd(o),
		newDoneCmd(o),
		newRemoveCmd(o),
		newPauseCmd(o),
		newResetCmd(o),
		newPinCmd(o),
		newPriorityCmd(o),
		newClearCmd(o),
		newTimerCmd(o),
		newExportCmd(o),
		newImportCmd(o),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
