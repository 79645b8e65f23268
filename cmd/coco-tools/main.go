package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/coco-tools/internal/config"
	"github.com/ironsheep/coco-tools/internal/dataset"
	"github.com/ironsheep/coco-tools/internal/monitoring"
	"github.com/ironsheep/coco-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("coco-tools %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		}
	}

	// Configure logging to stderr; stdout carries the summary or MCP traffic
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	monitoring.Debugf("coco-tools v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		server.Version = Version
		if err := server.New().Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	cfg, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "coco-tools: %v\n", err)
		os.Exit(1)
	}

	if _, err := dataset.Run(cfg, os.Stdout); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// parseArgs resolves defaults, then the -config file, then flags.
func parseArgs(args []string) (*config.Config, error) {
	cfg := config.Default()

	// -config has to be applied before the other flags are registered so
	// that explicit flags win over file values.
	if path := configPath(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("coco-tools", flag.ContinueOnError)
	fs.Usage = func() { printUsage(os.Stderr) }
	fs.String("config", "", "JSON file with default option values")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

// configPath finds the value of -config without parsing the other flags.
func configPath(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "coco-tools - convert VOC XML / TXT annotations to COCO JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  coco-tools -r <root_dir> -o <output_dir> [options]")
	fmt.Fprintln(w, "  coco-tools serve      Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  coco-tools version    Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -root_dir, -r          Root directory of images and annotations (required)")
	fmt.Fprintln(w, "  -output_dir, -o        Output directory for the chart and JSON (required)")
	fmt.Fprintln(w, "  -image_format, -im     Image file extension (default jpg)")
	fmt.Fprintln(w, "  -annotation_format, -af  txt or xml (default txt)")
	fmt.Fprintln(w, "  -xml2txt               Convert XML annotations to TXT first")
	fmt.Fprintln(w, "  -stats                 Render dataset_stats.png")
	fmt.Fprintln(w, "  -txt2json              Write instances_train2020.json and instances_test2020.json")
	fmt.Fprintln(w, "  -train_ratio           Train split fraction (default 0.8)")
	fmt.Fprintln(w, "  -seed                  Shuffle seed (default 10)")
	fmt.Fprintln(w, "  -strict                Abort on the first malformed annotation")
	fmt.Fprintln(w, "  -config                JSON file with option values; flags override it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", monitoring.LogLevelEnv)
}
