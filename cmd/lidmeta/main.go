// Command lidmeta builds and serves a MusicBrainz artist/album dataset:
// "build" runs the ingest pipeline (C1-C6) and "serve" hosts the search
// API (C7) over its output. "bench-search" and "inspect" are operator
// tooling layered on top of the same config and storage engines.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
)

// configPaths collects repeated -config flags in the order given; later
// files override earlier ones, matching common.LoadFromFiles.
type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	port        = flag.Int("port", 0, "server port (overrides config, serve only)")
	host        = flag.String("host", "", "server host (overrides config, serve only)")
	showVersion = flag.Bool("version", false, "print version information")
)

func init() {
	flag.Var(&configFiles, "config", "config file path (repeatable; later files override earlier ones)")
	flag.Var(&configFiles, "c", "config file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lidmeta version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: lidmeta <build|serve|bench-search|inspect> [flags]")
		os.Exit(2)
	}
	subcommand := args[0]

	autoDiscoverConfig()

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tmp := arbor.NewLogger()
		tmp.Fatal().Err(err).Strs("paths", configFiles).Msg("failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *port, *host)

	if err := config.Validate(); err != nil {
		tmp := arbor.NewLogger()
		tmp.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	common.LoadVersionFromFile()
	logger := common.SetupLogger(config)
	common.InstallCrashHandler(config.Logging.Directory)
	defer common.RecoverWithCrashFile()

	common.PrintBanner(config, logger, subcommand)

	switch subcommand {
	case "build":
		if err := runBuild(config, logger); err != nil {
			logger.Fatal().Err(err).Msg("build failed")
		}
	case "serve":
		if err := runServe(config, logger); err != nil {
			logger.Fatal().Err(err).Msg("serve failed")
		}
	case "bench-search":
		if err := runBenchSearch(config, logger, args[1:]); err != nil {
			logger.Fatal().Err(err).Msg("bench-search failed")
		}
	case "inspect":
		if err := runInspect(config, logger); err != nil {
			logger.Fatal().Err(err).Msg("inspect failed")
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q: expected build, serve, bench-search, or inspect\n", subcommand)
		os.Exit(2)
	}

	common.PrintShutdownBanner(logger)
	common.Stop()
}

// autoDiscoverConfig falls back to ./lidmeta.toml when the caller supplied
// no -config flag, mirroring the teacher's current-directory auto-discovery.
func autoDiscoverConfig() {
	if len(configFiles) > 0 {
		return
	}
	if _, err := os.Stat("lidmeta.toml"); err == nil {
		configFiles = append(configFiles, "lidmeta.toml")
	}
}
