package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/folio/database/seeders"
)

// folio seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := seeders.Names()
		fmt.Fprintf(cmd.OutOrStdout(), "Running seeders: %v\n", names)

		if err := newApplication().SeedNow(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Seeding complete")
		return nil
	},
}
