package cmd

import (
	"time"

	"github.com/mj1618/dockwatch/internal/arbiter"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/spf13/cobra"
)

var screensCmd = &cobra.Command{
	Use:   "screens",
	Short: "List displays and their computed dock areas",
	Long:  "List attached displays with their frames, visible frames, and the dock area the current settings reserve on each.",
	RunE:  runScreens,
}

func init() {
	rootCmd.AddCommand(screensCmd)
	screensCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runScreens(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	screens, err := provider.Screens.List()
	if err != nil {
		return err
	}

	entries := make([]output.ScreenEntry, 0, len(screens))
	for _, s := range screens {
		entries = append(entries, output.ScreenEntry{
			Screen:   s,
			DockArea: arbiter.DockArea(s, cfg.Dock),
		})
	}

	return output.Print(output.ScreensResult{
		TS:      time.Now().Unix(),
		Screens: entries,
	})
}
