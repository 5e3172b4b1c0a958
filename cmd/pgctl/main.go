package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pg-manager/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pgctl",
		Short: "PG manager administration tool",
	}

	rootCmd.AddCommand(
		cli.MigrateCmd(),
		cli.CreateAdminCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
