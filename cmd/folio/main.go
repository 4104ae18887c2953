package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/folio/app/routes"
	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/database/seeders"
	"github.com/shashiranjanraj/folio/pkg/app"
	"github.com/shashiranjanraj/folio/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Portfolio site backend",
	Long:          "folio serves the portfolio's static front end and its /api, /api/auth and /api/admin endpoints.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		logger.Setup(config.AppEnv(), os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(seedCmd)
}

// newApplication wires the default route groups and every registered seeder.
func newApplication() *app.Application {
	a := app.New(config.Current()).
		API(routes.API).
		Auth(routes.Auth).
		Admin(routes.Admin)
	return seeders.Apply(a)
}
