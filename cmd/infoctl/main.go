package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/infod/pkg/client"
)

var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "infoctl",
	Short:   "infoctl - Info protocol CLI client",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("addr", "127.0.0.1:3003", "infod text-protocol address")
	rootCmd.AddCommand(getCmd, cmdCmd, rawCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <name>...",
	Short: "Issue one or more bare lookups and print name=value",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		c, err := client.Dial(addr)
		if err != nil {
			return err
		}
		defer c.Close()

		body := strings.Join(args, "\n") + "\n"
		lines, err := c.Request(body)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Printf("%s=%s\n", l.Name, l.Value)
		}
		return nil
	},
}

var cmdCmd = &cobra.Command{
	Use:   "cmd <name> <params>",
	Short: "Issue a single command (e.g. 'infoctl cmd config-set context=service;ticker-interval=2')",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		c, err := client.Dial(addr)
		if err != nil {
			return err
		}
		defer c.Close()

		value, err := c.Command(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw <body>",
	Short: "Send a raw request body verbatim and print every reply line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		c, err := client.Dial(addr)
		if err != nil {
			return err
		}
		defer c.Close()

		body := args[0]
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		lines, err := c.Request(body)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Printf("%s\t%s\n", l.Name, l.Value)
		}
		return nil
	},
}
