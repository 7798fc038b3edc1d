package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/docs-tracker/internal/config"
	"github.com/zombor/docs-tracker/internal/tracker"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("docs-tracker")
	var (
		configPath   = fs.StringLong("config", "", "Optional YAML config file path")
		port         = fs.IntLong("port", 0, "HTTP server port (default 8080)")
		referenceDir = fs.StringLong("reference", "", "Directory holding syntax.csv and template.csv (default ./reference)")
		root         = fs.StringLong("root", "", "Shipment root folder; runs once headless and exits")
		masterPath   = fs.StringLong("master", "", "Master CDs CSV for per-CDs mode (headless runs)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("DOCS_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Config file values fill in whatever the flags left unset
	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *referenceDir == "" {
		*referenceDir = cfg.ReferenceDir
	}
	if *referenceDir == "" {
		*referenceDir = "./reference"
	}
	if *root == "" {
		*root = cfg.Root
	}
	if *masterPath == "" {
		*masterPath = cfg.Master
	}
	if *port == 0 {
		*port = cfg.Port
	}
	if *port == 0 {
		*port = 8080
	}

	slog.Info("Loading reference tables...", "dir", *referenceDir)
	refs, err := tracker.LoadReferences(*referenceDir)
	if err != nil {
		slog.Error("Failed to load reference tables", "error", err)
		os.Exit(1)
	}

	service := tracker.NewService(refs)

	// Headless one-shot mode
	if *root != "" {
		var master *tracker.MasterIndex
		if *masterPath != "" {
			master, err = tracker.LoadMasterFile(*masterPath)
			if err != nil {
				slog.Error("Failed to load master file", "path", *masterPath, "error", err)
				os.Exit(1)
			}
		}
		result, err := service.Run(*root, master)
		if err != nil {
			slog.Error("Report run failed", "root", *root, "error", err)
			os.Exit(1)
		}
		slog.Info("Artifacts written",
			"csv", result.CSVName,
			"parquet", result.ParquetName,
			"manifest", tracker.ManifestName,
		)
		return
	}

	// Server mode
	server := tracker.NewServer(service)
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
