package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todolist/internal/models"
)

// ------- minimal styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
}

func formatTodo(t models.Todo) string {
	box, text := "☐", t.Text
	if t.Completed {
		box, text = successStyle.Render("☑"), doneStyle.Render(t.Text)
	}
	return fmt.Sprintf("%s %s  %s", box, text, mutedStyle.Render(t.ID))
}

func listLines(todos []models.Todo) []string {
	done, pending := models.Counts(todos)
	lines := []string{fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
	)}

	if len(todos) == 0 {
		return append(lines, mutedStyle.Render("No tasks yet! Add some with `todolist add`."))
	}
	for _, t := range todos {
		lines = append(lines, formatTodo(t))
	}
	return lines
}
