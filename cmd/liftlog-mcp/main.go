package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/progress"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	timezone := flag.String("timezone", "", "timezone for calendar days (default local)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// Stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> [-timezone Europe/Berlin]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := progress.Config{}
	if *timezone != "" {
		loc, err := time.LoadLocation(*timezone)
		if err != nil {
			log.Error("invalid timezone", "timezone", *timezone, "error", err)
			os.Exit(1)
		}
		cfg.Location = loc
	}

	client := liftmcp.NewHTTPClient(*serverURL)
	m := liftmcp.New(client, cfg, Version, log)

	log.Info("mcp stdio server starting", "server", *serverURL, "version", Version)
	if err := server.ServeStdio(m); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
