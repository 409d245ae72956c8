package cmd

import (
	"time"

	"github.com/mj1618/dockwatch/internal/badge"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/spf13/cobra"
)

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Read notification badge counts from the dock",
	Long:  "Walk the dock's accessibility tree and report the badge count for each dock item, keyed by the item's application URL (or title when no URL is exposed).",
	RunE:  runBadges,
}

func init() {
	rootCmd.AddCommand(badgesCmd)
	badgesCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runBadges(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	reader := badge.NewReader(provider.Introspector, provider.Processes, nil)
	snap, err := reader.Counts(cmd.Context())
	if err != nil {
		return err
	}

	return output.Print(output.BadgesResult{
		TS:     time.Now().Unix(),
		Counts: snap.Counts,
		Total:  snap.Total(),
		Source: platform.BundleDock,
	})
}
