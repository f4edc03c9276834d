package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftrpc/weft/internal/cli/prompt"
	"github.com/weftrpc/weft/pkg/config"
)

var (
	initForce       bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a weftd configuration file, prompting for the host/port the
server should listen on and the worker-process pool size.

By default, the configuration file is created at
$XDG_CONFIG_HOME/weft/config.yaml. Use --config to specify a custom path.

Examples:
  # Interactive init with default location
  weftd init

  # Non-interactive, all defaults
  weftd init --yes

  # Initialize with custom path
  weftd init --config /etc/weft/config.yaml

  # Force overwrite existing config
  weftd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initNonInteractive, "yes", "y", false, "Skip prompts and write defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()

	if !initNonInteractive {
		host, err := prompt.Input("Server host", cfg.Server.Host)
		if err != nil {
			return err
		}
		cfg.Server.Host = host

		port, err := prompt.InputPort("Server port", cfg.Server.Port)
		if err != nil {
			return err
		}
		cfg.Server.Port = port

		workers, err := prompt.InputInt("Supervised worker processes (0 disables the supervisor)", cfg.Supervisor.Workers)
		if err != nil {
			return err
		}
		cfg.Supervisor.Workers = workers

		level, err := prompt.Input("Log level", cfg.Logging.Level)
		if err != nil {
			return err
		}
		cfg.Logging.Level = level
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: weftd start")
	fmt.Printf("  3. Or specify custom config: weftd start --config %s\n", configPath)

	return nil
}
