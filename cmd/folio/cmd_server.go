package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/folio/config"
	"github.com/shashiranjanraj/folio/pkg/logger"
)

// folio serve — start the HTTP server.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Current().Validate(); err != nil {
			return err
		}
		if config.UsingDefaultJWTSecret() {
			logger.Warn("JWT_SECRET is not set, using the built-in development secret")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return newApplication().Run(ctx)
	},
}

// folio route:list — print all mounted routes.
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List all mounted routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := newApplication().Routes()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH")
		fmt.Fprintln(w, "------\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\n", ri.Method, ri.Pattern)
		}
		fmt.Fprintln(w, "GET\t/* (static files, entry document)")
		return w.Flush()
	},
}
