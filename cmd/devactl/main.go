package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var apiFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "devactl",
		Short: "CLI client for the Deva companion REST API",
	}
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Service base URL")

	chatCmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message, or start an interactive session with no arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(apiFlag)
			if len(args) > 0 {
				reply, err := c.chat(strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Println(reply)
				return nil
			}
			return repl(c)
		},
	}
	rootCmd.AddCommand(chatCmd)

	memoriesCmd := &cobra.Command{
		Use:   "memories",
		Short: "List stored memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag).listMemories(os.Stdout)
		},
	}
	rootCmd.AddCommand(memoriesCmd)

	remindersCmd := &cobra.Command{
		Use:   "reminders",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, _ := cmd.Flags().GetBool("pending")
			return newClient(apiFlag).listReminders(os.Stdout, pending)
		},
	}
	remindersCmd.Flags().BoolP("pending", "p", false, "Only reminders not yet completed")
	rootCmd.AddCommand(remindersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func repl(c *client) error {
	fmt.Println("Chatting with Deva. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		reply, err := c.chat(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println("deva>", reply)
	}
}
