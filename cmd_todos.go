package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"todolist/internal/state"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List todos, newest first",
	Args:    cobra.NoArgs,
	RunE: withHolder(func(cmd *cobra.Command, args []string, holder *state.Holder) error {
		panel(cmd.OutOrStdout(), listLines(holder.Snapshot().Todos))
		return nil
	}),
}

var addCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Add a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: withHolder(func(cmd *cobra.Command, args []string, holder *state.Holder) error {
		todo, err := holder.Add(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if todo == nil {
			return errors.New("text is required")
		}
		ok(cmd.OutOrStdout(), "added "+formatTodo(*todo))
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <text...>",
	Short: "Replace the text of a todo",
	Args:  cobra.MinimumNArgs(2),
	RunE: withHolder(func(cmd *cobra.Command, args []string, holder *state.Holder) error {
		id := args[0]
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			return errors.New("text is required")
		}

		current, found := findTodo(holder.Snapshot(), id)
		if !found {
			return fmt.Errorf("todo %s not found", id)
		}
		if current == text {
			ok(cmd.OutOrStdout(), "unchanged")
			return nil
		}

		if err := holder.UpdateText(cmd.Context(), id, text); err != nil {
			return err
		}
		ok(cmd.OutOrStdout(), "updated "+id)
		return nil
	}),
}

var doneCmd = &cobra.Command{
	Use:     "done <id>",
	Aliases: []string{"toggle"},
	Short:   "Toggle the completion of a todo",
	Args:    cobra.ExactArgs(1),
	RunE: withHolder(func(cmd *cobra.Command, args []string, holder *state.Holder) error {
		id := args[0]
		if _, found := findTodo(holder.Snapshot(), id); !found {
			return fmt.Errorf("todo %s not found", id)
		}

		if err := holder.ToggleComplete(cmd.Context(), id); err != nil {
			return err
		}
		ok(cmd.OutOrStdout(), "toggled "+id)
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: withHolder(func(cmd *cobra.Command, args []string, holder *state.Holder) error {
		if err := holder.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		ok(cmd.OutOrStdout(), "deleted "+args[0])
		return nil
	}),
}

// withHolder opens the configured store, loads the list and hands the
// holder to fn. A failed load is reported as the command's error.
func withHolder(fn func(cmd *cobra.Command, args []string, holder *state.Holder) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}

		holder, closeStore, err := openHolder(ctx, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		holder.Load(ctx)
		if msg := holder.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return fn(cmd, args, holder)
	}
}

func findTodo(snap state.Snapshot, id string) (text string, found bool) {
	for _, t := range snap.Todos {
		if t.ID == id {
			return t.Text, true
		}
	}
	return "", false
}
