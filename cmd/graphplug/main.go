package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:   "graphplug",
		Short: "GraphQL schema assembly and serving for entity models",
		Long: `graphplug produces a GraphQL schema from an entity model, assembles it
from type, field and mutation plugins and serves it over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./graphplug.yaml)")

	root.AddCommand(newServeCmd(&configFile))
	root.AddCommand(newPrintSchemaCmd(&configFile))
	root.AddCommand(newValidateCmd(&configFile))
	return root
}
