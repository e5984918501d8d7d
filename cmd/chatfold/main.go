package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatfold/chatfold/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "chatfold",
	Short: "Load, query and merge chat history exports",
}

func main() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP request processor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
