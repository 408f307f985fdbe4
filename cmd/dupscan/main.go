package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/duplocate/dupscan/pkg/dupscan"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	root        string
	configPath  string
	verbose     int
	debug       string
	symlinkMode string
	hasSymlinks bool
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dupscan: %v\n", err)
		return 0
	}

	dupscan.SetVerboseLevel(opts.verbose)
	dupscan.SetDebugFlags(opts.debug)

	info, statErr := os.Stat(opts.root)
	if statErr != nil {
		fmt.Printf("dupscan: %s: no such directory\n", opts.root)
		dupscan.VerboseLog(1, "startup: %v", &dupscan.InputValidationError{Path: opts.root, Reason: statErr.Error()})
		return dupscan.ExitInputValidation
	}
	if !info.IsDir() {
		fmt.Printf("dupscan: %s: not a directory\n", opts.root)
		dupscan.VerboseLog(1, "startup: %v", &dupscan.InputValidationError{Path: opts.root, Reason: "not a directory"})
		return dupscan.ExitInputValidation
	}

	dupscanDir := filepath.Join(opts.root, ".dupscan")
	if opts.configPath != "" {
		dupscanDir = filepath.Dir(opts.configPath)
	}

	cfg, err := dupscan.LoadConfig(dupscanDir)
	if err != nil {
		fmt.Printf("dupscan: failed to run, see log\n")
		dupscan.VerboseLog(1, "startup: failed to load config: %v", err)
		return 0
	}

	if opts.hasSymlinks {
		if err := dupscan.ValidateSymlinkMode(opts.symlinkMode); err != nil {
			fmt.Fprintf(os.Stderr, "dupscan: %v\n", err)
			return 0
		}
		symlinks := cfg.GetSymlinkConfig()
		symlinks.Mode = opts.symlinkMode
		overrideSymlinkMode(cfg, symlinks.Mode)
	}

	result, err := dupscan.Run(opts.root, cfg, os.Stdout)
	if err != nil {
		fmt.Printf("dupscan: failed to run, see log\n")
		dupscan.VerboseLog(1, "run: %v", err)
		return 0
	}

	dupscan.VerboseLog(1, "scanned %d files (%d bytes)", result.FilesScanned, result.BytesScanned)
	return 0
}

// overrideSymlinkMode applies a CLI-level symlink mode without
// persisting it, unlike Config.SetSymlinkMode which saves to disk.
func overrideSymlinkMode(cfg *dupscan.Config, mode string) {
	cfg.SetSymlinkModeInMemory(mode)
}

func parseArgs(args []string) (options, error) {
	opts := options{root: ".", verbose: 0}

	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--config":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--config requires a path")
			}
			opts.configPath = args[i]
		case "-v", "--verbose":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("%s requires a level", arg)
			}
			level, err := strconv.Atoi(args[i])
			if err != nil {
				return opts, fmt.Errorf("%s: invalid level %q", arg, args[i])
			}
			opts.verbose = level
		case "--debug":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--debug requires a flag list")
			}
			opts.debug = args[i]
		case "--symlinks":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--symlinks requires all or none")
			}
			opts.symlinkMode = args[i]
			opts.hasSymlinks = true
		case "--help", "-h":
			showUsage()
			os.Exit(0)
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) > 1 {
		return opts, fmt.Errorf("expected at most one starting path, got %d", len(positional))
	}
	if len(positional) == 1 {
		opts.root = positional[0]
	}

	return opts, nil
}

func showUsage() {
	fmt.Printf("Usage: dupscan [path] [options]\n\n")
	fmt.Printf("  path                  directory to scan (default: current directory)\n")
	fmt.Printf("  --config PATH         config location; reads the file named config in PATH's directory (default: <path>/.dupscan/config)\n")
	fmt.Printf("  -v, --verbose N       set verbose level\n")
	fmt.Printf("  --debug FLAGS         comma-separated debug flags\n")
	fmt.Printf("  --symlinks all|none   override symlink handling for this run\n")
}
