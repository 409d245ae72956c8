package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/dockwatch/internal/arbiter"
	"github.com/mj1618/dockwatch/internal/badge"
	"github.com/mj1618/dockwatch/internal/config"
	"github.com/mj1618/dockwatch/internal/fullscreen"
	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/output"
	"github.com/mj1618/dockwatch/internal/platform"
	"github.com/mj1618/dockwatch/internal/version"
	"gopkg.in/yaml.v3"
)

// mcpServer wraps the MCP server with the platform provider and the
// observation components the tools dispatch to. Badge reads go through the
// reader's TTL cache, so repeated tool calls do not rewalk the dock tree.
type mcpServer struct {
	provider   *platform.Provider
	providerMu sync.Mutex
	cfg        config.Config
	badges     *badge.Reader
	arbiter    *arbiter.Arbiter
	mcp        *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
}

// newMCPServer creates and configures an MCP server with all dockwatch tools.
func newMCPServer(cfg config.Config) (*mcpServer, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}

	arb := arbiter.New(provider.Introspector, provider.WindowServer, provider.Screens, provider.SelfPID, nil)
	arb.Reconfigure(cfg.Dock, cfg.Arbiter)

	s := &mcpServer{
		provider: provider,
		cfg:      cfg,
		badges:   badge.NewReader(provider.Introspector, provider.Processes, nil),
		arbiter:  arb,
	}

	s.mcp = mcpserver.NewMCPServer(
		"dockwatch",
		version.Version,
	)

	s.registerTools()
	return s, nil
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	// windows
	s.mcp.AddTool(
		mcp.NewTool("windows",
			mcp.WithDescription("List on-screen windows with app name, PID, layer, alpha, and frame"),
			mcp.WithString("app", mcp.Description("Filter by application name")),
			mcp.WithNumber("pid", mcp.Description("Filter by process ID")),
			mcp.WithBoolean("all", mcp.Description("Include off-screen and non-regular windows")),
		),
		s.handleWindows,
	)

	// screens
	s.mcp.AddTool(
		mcp.NewTool("screens",
			mcp.WithDescription("List attached displays with their frames and the dock area reserved on each"),
		),
		s.handleScreens,
	)

	// badges
	s.mcp.AddTool(
		mcp.NewTool("badges",
			mcp.WithDescription("Read notification badge counts from the dock's accessibility tree. Results are cached briefly."),
		),
		s.handleBadges,
	)

	// fullscreen
	s.mcp.AddTool(
		mcp.NewTool("fullscreen",
			mcp.WithDescription("Report whether any window currently covers a full screen"),
		),
		s.handleFullscreen,
	)

	// arbitrate
	s.mcp.AddTool(
		mcp.NewTool("arbitrate",
			mcp.WithDescription("Resize and move windows that overlap the reserved dock area, repeating until converged"),
			mcp.WithNumber("max-passes", mcp.Description("Maximum arbitration passes (default: 3)")),
		),
		s.handleArbitrate,
	)
}

// yamlResult marshals v to YAML for an MCP text response.
func yamlResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *mcpServer) handleWindows(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	appName := stringParam(params, "app", "")
	pid := intParam(params, "pid", 0)
	all := boolParam(params, "all", false)

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	windows, err := s.provider.WindowServer.ListWindows()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
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

	return yamlResult(output.WindowsResult{TS: time.Now().Unix(), Windows: filtered})
}

func (s *mcpServer) handleScreens(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	screens, err := s.provider.Screens.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries := make([]output.ScreenEntry, 0, len(screens))
	for _, sc := range screens {
		entries = append(entries, output.ScreenEntry{
			Screen:   sc,
			DockArea: arbiter.DockArea(sc, s.cfg.Dock),
		})
	}

	return yamlResult(output.ScreensResult{TS: time.Now().Unix(), Screens: entries})
}

func (s *mcpServer) handleBadges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	snap, err := s.badges.Counts(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return yamlResult(output.BadgesResult{
		TS:     time.Now().Unix(),
		Counts: snap.Counts,
		Total:  snap.Total(),
		Source: platform.BundleDock,
	})
}

func (s *mcpServer) handleFullscreen(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	windows, err := s.provider.WindowServer.ListWindows()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	screens, err := s.provider.Screens.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type fullscreenResult struct {
		TS     int64 `yaml:"ts"`
		Active bool  `yaml:"active"`
	}
	return yamlResult(fullscreenResult{
		TS:     time.Now().Unix(),
		Active: fullscreen.Covers(windows, screens, s.provider.SelfPID, s.cfg.Fullscreen),
	})
}

func (s *mcpServer) handleArbitrate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	maxPasses := intParam(params, "max-passes", 3)
	if maxPasses < 1 {
		maxPasses = 1
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if err := s.arbiter.RefreshScreens(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	total := 0
	passes := 0
	converged := false
	for passes < maxPasses {
		n, err := s.arbiter.Pass(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		passes++
		total += n
		if n == 0 {
			converged = true
			break
		}
	}

	return yamlResult(output.ArbitrateResult{
		TS:        time.Now().Unix(),
		Corrected: total,
		Passes:    passes,
		Converged: converged,
	})
}
