package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/roomie/internal/config"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loader reads the configuration once flags have been parsed.
type loader func() (config.Config, error)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "roomie",
		Short:         "Property management for tenants, rooms and rent payments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to read before the environment")

	load := func() (config.Config, error) { return config.Load(envFile) }

	root.AddCommand(
		serveCmd(load),
		consoleCmd(load),
		userCmd(load),
		exportCmd(load),
	)
	return root
}
