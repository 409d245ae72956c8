package cmd

import (
	"time"

	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List on-screen windows",
	Long:  "List the window-server snapshot with app name, PID, layer, alpha, and frame.",
	RunE:  runWindows,
}

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.Flags().String("app", "", "Filter windows by app name")
	windowsCmd.Flags().Int("pid", 0, "Filter windows by PID")
	windowsCmd.Flags().Bool("all", false, "Include off-screen and non-regular windows")
	windowsCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runWindows(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	appName, _ := cmd.Flags().GetString("app")
	pid, _ := cmd.Flags().GetInt("pid")
	all, _ := cmd.Flags().GetBool("all")

	windows, err := provider.WindowServer.ListWindows()
	if err != nil {
		return err
	}

	filtered := make([]model.Window, 0, len(windows))
	for _, w := range windows {
		if !all && (!w.OnScreen || !w.Regular) {
			continue
		}
		if appName != "" && w.App != appName {
			continue
		}
		if pid != 0 && w.PID != pid {
			continue
		}
		filtered = append(filtered, w)
	}

	return output.Print(output.WindowsResult{
		TS:      time.Now().Unix(),
		Windows: filtered,
	})
}
