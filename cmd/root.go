package cmd

import (
	"fmt"
	"os"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dockwatch",
	Short: "Observe the desktop and keep windows clear of the dock area",
	Long: "A desktop observation engine that reads dock badges, detects fullscreen\n" +
		"apps, arbitrates window frames against a reserved dock area, and keeps\n" +
		"notification banners in a configured corner.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().String("config", "", "Path to settings file (default ~/.config/dockwatch/config.yaml)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if platform.RequestPermissionsFunc != nil {
			platform.RequestPermissionsFunc()
		}

		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if prettyFlag := cmd.Flags().Lookup("pretty"); prettyFlag != nil {
			if pretty, err := cmd.Flags().GetBool("pretty"); err == nil && pretty {
				output.PrettyOutput = true
			}
		}
		return nil
	}
}

// loadConfig resolves the --config flag and loads the settings file,
// falling back to defaults when the file is absent.
func loadConfig() (config.Config, string, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, err
	}
	return cfg, path, nil
}
