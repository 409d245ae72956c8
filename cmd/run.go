package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/engine"
	"github.com/mj1618/dockwatch/internal/logging"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the observation engine in the foreground",
	Long: `Run the full engine: window arbitration against the dock area, fullscreen
detection, badge scanning, and (if enabled) notification banner repositioning.
The settings file is watched for changes and applied live.

Examples:
  dockwatch run
  dockwatch run --config ./config.yaml
  dockwatch run --log-stderr`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("log-stderr", false, "Log to stderr instead of the log files")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := openLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	eng := engine.New(engine.Options{
		Provider: provider,
		Config:   cfg,
		Log:      log,
		OnUpdate: func(u engine.Update) {
			reasons := make([]string, len(u.Reasons))
			for i, r := range u.Reasons {
				reasons[i] = string(r)
			}
			log.Debugf("update: %s", strings.Join(reasons, ","))
		},
		OnFullscreen: func(active bool) {
			log.Infof("fullscreen: %v", active)
		},
	})
	if err := eng.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	stopWatch, err := config.Watch(path,
		func(next config.Config) {
			log.Infof("settings reloaded from %s", path)
			eng.SetConfig(next)
		},
		func(err error) {
			log.Warnf("settings reload: %v", err)
		},
	)
	if err != nil {
		// The engine still runs with the startup settings.
		log.Warnf("settings watch unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	log.Infof("dockwatch running; settings at %s", path)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infof("shutting down")
	return nil
}

// openLogger builds the file logger from settings, or a stderr logger when
// --log-stderr is set.
func openLogger(cmd *cobra.Command, cfg config.Config) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if stderr, _ := cmd.Flags().GetBool("log-stderr"); stderr {
		// Warnings already reach the main stream; discard the duplicate feed.
		return logging.NewWriters(os.Stderr, io.Discard, level), nil
	}
	return logging.New(logging.Config{Dir: cfg.Logging.Dir, Level: level})
}
