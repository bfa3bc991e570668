// ABOUTME: Entry point for the dataverse-mcp server and its maintenance commands
// ABOUTME: Serves MCP tools over HTTP and offers health, tools, seed and audit helpers

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/satriotsubasa/dataverse-mcp/internal/config"
	"github.com/satriotsubasa/dataverse-mcp/internal/gateway"
	"github.com/satriotsubasa/dataverse-mcp/internal/store"
	"github.com/satriotsubasa/dataverse-mcp/internal/tools"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _       _                                                         
  __| | __ _| |_ __ ___   _____ _ __ ___  ___       _ __ ___   ___ _ __  
 / _' |/ _' | __/ _' \ \ / / _ \ '__/ __|/ _ \_____| '_ ' _ \ / __| '_ \ 
| (_| | (_| | || (_| |\ V /  __/ |  \__ \  __/_____| | | | | | (__| |_) |
 \__,_|\__,_|\__\__,_| \_/ \___|_|  |___/\___|     |_| |_| |_|\___| .__/ 
                                                                  |_|    
`

func usage() {
	fmt.Println("Usage: dataverse-mcp <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Start the MCP server")
	fmt.Println("  health           Check server health and readiness")
	fmt.Println("  tools            List the tools the server exposes")
	fmt.Println("  seed [PATH]      Create a sample sqlite database for local use")
	fmt.Println("  audit [N|ID]     Show the most recent audited tool calls, or one call by id")
	fmt.Println("  version          Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "tools":
		err = runTools()
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	case "audit":
		err = runAudit(ctx, os.Args[2:])
	case "version", "--version", "-v":
		fmt.Println(version)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file at the default location
// falls back to defaults, with the database taken from DATAVERSE_DSN and
// DATAVERSE_DRIVER.
func loadConfig() (*config.Config, string, error) {
	path := config.DefaultPath()

	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}

	cfg = config.Default()
	cfg.Database.DSN = os.Getenv("DATAVERSE_DSN")
	cfg.Database.AuthToken = os.Getenv("LIBSQL_AUTH_TOKEN")
	if driver := os.Getenv("DATAVERSE_DRIVER"); driver != "" {
		cfg.Database.Driver = strings.ToLower(driver)
	}
	if addr := os.Getenv("DATAVERSE_HTTP_ADDR"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("validating config: %w", err)
	}
	return cfg, "", nil
}

func runServe(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.MCP.ServerVersion == "dev" {
		cfg.MCP.ServerVersion = version
	}

	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	if configPath != "" {
		fmt.Printf("Config:    %s\n", configPath)
	} else {
		fmt.Print("Config:    ")
		yellow.Println("defaults (no config file found)")
	}
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      http://%s/mcp\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s", cfg.Database.Driver)
	if cfg.Database.DSN == "" {
		yellow.Print(" [not configured]")
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("Search:    %s (%s)\n", cfg.Search.Table, cfg.Search.Kind)
	if cfg.Audit.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Audit:     %s\n", cfg.Audit.Path)
	}
	fmt.Println()

	logger.Info("starting dataverse-mcp",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Database.Driver,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	for _, check := range []struct{ label, path string }{
		{"healthy", "/health"},
		{"ready", "/health/ready"},
	} {
		url := fmt.Sprintf("http://%s%s", cfg.Server.HTTPAddr, check.path)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s check failed: status %d", check.path, resp.StatusCode)
		}
		color.Green("%s", check.label)
	}
	return nil
}

func runTools() error {
	d := tools.NewDispatcher(tools.Config{})

	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)
	for _, info := range d.Tools() {
		bold.Print(info.Name)
		if d.Cacheable(info.Name) {
			gray.Print(" (cached)")
		}
		fmt.Println()
		fmt.Printf("    %s\n", info.Description)
		if info.InputSchema != nil && len(info.InputSchema.Required) > 0 {
			gray.Printf("    required: %s\n", strings.Join(info.InputSchema.Required, ", "))
		}
	}
	return nil
}

func runAudit(ctx context.Context, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Audit.Enabled {
		return errors.New("audit log is disabled (set audit.enabled in the config)")
	}

	s, err := store.Open(ctx, cfg.Audit.Path, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return showToolCall(ctx, s, args[0])
		}
		limit = n
	}

	calls, err := s.ListToolCalls(ctx, store.ToolCallFilter{Limit: limit})
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	red := color.New(color.FgRed)
	for _, c := range calls {
		gray.Printf("%s ", c.CreatedAt.Local().Format(time.DateTime))
		fmt.Printf("%-28s %5dms ", c.Tool, c.DurationMS)
		switch {
		case c.Failed():
			red.Printf("%d %s", c.ErrorCode, c.ErrorMessage)
		case c.Cached:
			gray.Print("cached")
		default:
			fmt.Print("ok")
		}
		fmt.Println()
	}

	stats, err := s.ToolStats(ctx)
	if err != nil {
		return err
	}
	if len(stats) > 0 {
		fmt.Println()
	}
	for _, st := range stats {
		fmt.Printf("%-28s calls=%d failures=%d cache_hits=%d\n", st.Tool, st.Calls, st.Failures, st.CacheHit)
	}
	return nil
}

func showToolCall(ctx context.Context, s *store.Store, id string) error {
	c, err := s.GetToolCall(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no audited tool call with id %s", id)
	}
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	row := func(label, value string) {
		gray.Printf("%-10s ", label)
		fmt.Println(value)
	}
	row("id", c.ID)
	row("request", c.RequestID)
	row("tool", c.Tool)
	row("time", c.CreatedAt.Local().Format(time.DateTime))
	row("duration", fmt.Sprintf("%dms", c.DurationMS))
	row("cached", strconv.FormatBool(c.Cached))
	row("arguments", string(c.Arguments))
	if c.Failed() {
		color.Red("%-10s %d %s", "error", c.ErrorCode, c.ErrorMessage)
	}
	return nil
}
