package cmd

import (
	"time"

	"github.com/mj1618/dockwatch/internal/arbiter"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/spf13/cobra"
)

var arbitrateCmd = &cobra.Command{
	Use:   "arbitrate",
	Short: "Run arbitration passes until windows clear the dock area",
	Long: `Resize and move windows that overlap the reserved dock area, then re-run
the pass until no further corrections are needed (at most --max-passes).
A correct pass sequence converges by the second pass; more passes indicate
an application fighting the corrections.`,
	RunE: runArbitrate,
}

func init() {
	rootCmd.AddCommand(arbitrateCmd)
	arbitrateCmd.Flags().Int("max-passes", 3, "Maximum arbitration passes")
	arbitrateCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runArbitrate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	maxPasses, _ := cmd.Flags().GetInt("max-passes")
	if maxPasses < 1 {
		maxPasses = 1
	}

	arb := arbiter.New(provider.Introspector, provider.WindowServer, provider.Screens, provider.SelfPID, nil)
	arb.Reconfigure(cfg.Dock, cfg.Arbiter)
	if err := arb.RefreshScreens(); err != nil {
		return err
	}

	total := 0
	passes := 0
	converged := false
	for passes < maxPasses {
		n, err := arb.Pass(cmd.Context())
		if err != nil {
			return err
		}
		passes++
		total += n
		if n == 0 {
			converged = true
			break
		}
	}

	return output.Print(output.ArbitrateResult{
		TS:        time.Now().Unix(),
		Corrected: total,
		Passes:    passes,
		Converged: converged,
	})
}
