package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xERR0R/rrsigcheck/config"
	"github.com/0xERR0R/rrsigcheck/log"
)

//nolint:gochecknoglobals
var (
	version    = "undefined"
	buildTime  = "undefined"
	configPath string
	cfg        *config.Config
)

// NewRootCommand creates the rrsigcheck command with all sub commands
func NewRootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "rrsigcheck",
		Short: "rrsigcheck verifies DNSSEC signatures",
		Long: `Verifies RRSIG signatures of signed zones against their DNSKEYs.

Supported algorithms are RSA/MD5, DSA/SHA-1 and RSA/SHA-1.`,
		SilenceUsage: true,
	}

	c.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	c.AddCommand(
		NewVerifyCommand(),
		NewValidateCommand(),
		NewVersionCommand(),
	)

	return c
}

func initConfig() error {
	var err error

	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	log.ConfigureLogger(cfg.Log)

	return nil
}

// Execute starts the command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
