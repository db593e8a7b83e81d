package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"briefcast/internal/api"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize item and task queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				status, err := svc.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, "Items")
				fmt.Fprintf(out, "  Total:      %d\n", status.Items.Total)
				fmt.Fprintf(out, "  Pending:    %d\n", status.Items.Pending)
				fmt.Fprintf(out, "  Processing: %d\n", status.Items.Processing)
				fmt.Fprintf(out, "  Completed:  %s\n", colorCount(status.Items.Completed, ansiGreen, colorize))
				fmt.Fprintf(out, "  Failed:     %s\n", colorCount(status.Items.Failed, ansiRed, colorize))
				fmt.Fprintln(out, "Tasks")
				fmt.Fprintf(out, "  Outstanding: %s\n", colorCount(status.PendingTasks, ansiYellow, colorize))
				return nil
			})
		},
	}
}

func colorCount(count int, color string, colorize bool) string {
	rendered := fmt.Sprintf("%d", count)
	if !colorize || count == 0 {
		return rendered
	}
	return color + rendered + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
