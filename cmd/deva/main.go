package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deva-ai/deva/devaservice"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "deva",
		Short: "Personal companion service: chat, memories and reminders",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return devaservice.Run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
