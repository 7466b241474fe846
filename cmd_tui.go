package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todolist/internal/tui"
)

// tuiCmd starts the terminal UI
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Edit the list in an interactive terminal UI",
	Long: `Opens the list in a full-screen terminal UI.

Keys: a add, e edit, space toggle, d delete, r refresh, x dismiss error,
q quit. Enter saves and esc cancels while typing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Log lines would draw over the alternate screen.
		holder, closeStore, err := openHolder(ctx, zap.NewNop())
		if err != nil {
			return err
		}
		defer closeStore()

		return tui.Run(ctx, holder)
	},
}
