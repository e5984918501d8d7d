package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/merge"
)

func init() {
	diffCmd := &cobra.Command{
		Use:   "diff MASTER_PATH SLAVE_PATH",
		Short: "Compare two exports of the same history, chat by chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), args[0], args[1], os.Stdout)
		},
		Args: cobra.ExactArgs(2),
	}
	rootCmd.AddCommand(diffCmd)
}

func runDiff(ctx context.Context, masterPath, slavePath string, out io.Writer) error {
	front := newLocalFront()
	master, err := front.DetectAndLoad(ctx, masterPath, chooser.NoChooser{})
	if err != nil {
		return errors.Wrap(err, "master")
	}
	slave, err := front.DetectAndLoad(ctx, slavePath, chooser.NoChooser{})
	if err != nil {
		return errors.Wrap(err, "slave")
	}
	return printDiff(out, master, slave)
}

// printDiff aligns chats of the two exports by chat id and prints per-chat
// message differences. Master is the baseline; chats missing on either side
// are reported, not diffed.
func printDiff(out io.Writer, master, slave *history.Loaded) error {
	total := 0
	for _, cwd := range master.Chats() {
		id := cwd.Chat.ID
		if slave.ChatOption(id) == nil {
			fmt.Fprintf(out, "%s: no counterpart in slave\n", cwd.Chat.QualifiedName())
			continue
		}
		mm, err := master.Messages(id)
		if err != nil {
			return err
		}
		sm, err := slave.Messages(id)
		if err != nil {
			return err
		}
		diffs := merge.DiffMessages(merge.WrapMaster(mm), merge.WrapSlave(sm))
		if len(diffs) == 0 {
			continue
		}
		total += len(diffs)
		fmt.Fprintf(out, "%s: %d differences\n", cwd.Chat.QualifiedName(), len(diffs))
		for _, d := range diffs {
			fmt.Fprintf(out, "  %s\n", d.Message)
			if d.Values != nil {
				fmt.Fprintf(out, "    old: %s\n", d.Values.Old)
				fmt.Fprintf(out, "    new: %s\n", d.Values.New)
			}
		}
	}
	for _, cwd := range slave.Chats() {
		if master.ChatOption(cwd.Chat.ID) == nil {
			fmt.Fprintf(out, "%s: only in slave\n", cwd.Chat.QualifiedName())
		}
	}
	if total == 0 {
		fmt.Fprintln(out, "No differences")
	}
	return nil
}
