package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
)

func init() {
	parseCmd := &cobra.Command{
		Use:   "parse PATH",
		Short: "Detect and parse a chat export, printing a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(parseCmd)
}

func runParse(ctx context.Context, path string, out io.Writer) error {
	loaded, err := newLocalFront().DetectAndLoad(ctx, path, chooser.NoChooser{})
	if err != nil {
		return err
	}
	printSummary(out, loaded)
	return nil
}

func printSummary(out io.Writer, loaded *history.Loaded) {
	ds := loaded.Dataset()
	me := loaded.Myself()
	fmt.Fprintf(out, "Dataset %q (%s)\n", ds.Alias, ds.SourceType)
	fmt.Fprintf(out, "Root    %s\n", loaded.Root())
	fmt.Fprintf(out, "Myself  %s\n", me.PrettyName())
	fmt.Fprintf(out, "Users   %d\n", len(loaded.Users()))
	chats := loaded.Chats()
	fmt.Fprintf(out, "Chats   %d\n", len(chats))
	for _, cwd := range chats {
		fmt.Fprintf(out, "  %s: %s, %d members, %d messages\n",
			cwd.Chat.QualifiedName(), cwd.Chat.Type, len(cwd.Members), cwd.Chat.MsgCount)
	}
}
