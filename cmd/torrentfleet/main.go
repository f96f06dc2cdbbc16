package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/torrentfleet/internal/cliconfig"
	"github.com/bft-labs/torrentfleet/pkg/log"
	"github.com/bft-labs/torrentfleet/pkg/torrentfleet"
)

const helpDescription = `
One view over a fleet of Transmission instances.

Every command asks all members of the master replica set concurrently, each
under its own timeout, and merges the answers. Members that do not answer are
listed next to the result instead of failing the command.

The fleet is read from a TOML directory file or from Redis; the content
catalog and event log live in SQLite. Configure via file, env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  torrentfleet downloading
  torrentfleet recent --recent-limit 20 --output json
  torrentfleet search pink floyd
  torrentfleet log --types error,warn --count 20
  torrentfleet --config $HOME/.torrentfleet/config.toml stats
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration and the open fleet between the
// root command and its subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	watch   bool

	log   zerolog.Logger
	fleet *torrentfleet.Fleet
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(c).ExecuteContext(ctx)
	stop()

	if c.fleet != nil {
		if cerr := c.fleet.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("close fleet")
		}
	}
	if err != nil {
		c.log.Error().Err(err).Msg("torrentfleet")
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "torrentfleet",
		Short:         "One view over a fleet of Transmission instances",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.torrentfleet/config.toml)")
	f.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the default directory file and databases")
	f.StringVar(&c.cfg.DirectorySource, "directory", c.cfg.DirectorySource, "instance directory source (file or redis)")
	f.StringVar(&c.cfg.DirectoryFile, "directory-file", c.cfg.DirectoryFile, "TOML directory file (defaults to <data-dir>/directory.toml)")
	f.StringSliceVar(&c.cfg.RedisAddrs, "redis-addr", c.cfg.RedisAddrs, "redis address; repeat for a cluster")
	f.StringVar(&c.cfg.RedisPassword, "redis-password", c.cfg.RedisPassword, "redis password")
	f.StringVar(&c.cfg.RedisKeyPrefix, "redis-prefix", c.cfg.RedisKeyPrefix, "redis key prefix of the directory")
	f.StringVar(&c.cfg.CatalogDB, "catalog-db", c.cfg.CatalogDB, "catalog SQLite database (defaults to <data-dir>/catalog.db)")
	f.StringVar(&c.cfg.EventLogDB, "event-log-db", c.cfg.EventLogDB, "event log SQLite database (defaults to <data-dir>/events.db)")
	f.DurationVar(&c.cfg.InstanceTimeout, "instance-timeout", c.cfg.InstanceTimeout, "timeout of each call to one instance")
	f.DurationVar(&c.cfg.HTTPTimeout, "http-timeout", c.cfg.HTTPTimeout, "HTTP client timeout")
	f.IntVar(&c.cfg.MaxConcurrency, "max-concurrency", c.cfg.MaxConcurrency, "maximum concurrent instance calls")
	f.IntVar(&c.cfg.RecentLimit, "recent-limit", c.cfg.RecentLimit, "maximum records in the recent listing")
	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVarP(&c.cfg.Output, "output", "o", c.cfg.Output, "output format (table or json)")
	if err := f.MarkHidden("redis-password"); err != nil {
		c.log.Info().Err(err).Msg("failed to hide redis-password flag")
	}

	root.AddCommand(
		newDownloadingCmd(c),
		newRecentCmd(c),
		newErrorsCmd(c),
		newStatsCmd(c),
		newSummaryCmd(c),
		newSearchCmd(c),
		newLogCmd(c),
		newCatalogCmd(c),
		newDirectoryCmd(c),
	)
	return root
}

// loadConfig resolves configuration with precedence flags > env > file >
// defaults.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = cliconfig.LeveledLogger(c.cfg.LogLevel)

	logCfg := c.cfg
	if logCfg.RedisPassword != "" {
		logCfg.RedisPassword = "*****"
	}
	c.log.Debug().Interface("config", logCfg).Msg("configuration")
	return nil
}

// open opens the fleet on first use.
func (c *cli) open(ctx context.Context) (*torrentfleet.Fleet, error) {
	if c.fleet != nil {
		return c.fleet, nil
	}
	f, err := torrentfleet.Open(ctx, c.libConfig(),
		torrentfleet.WithLogger(log.NewZerologAdapterWithLogger(c.log)),
	)
	if err != nil {
		return nil, err
	}
	c.fleet = f
	return f, nil
}

func (c *cli) libConfig() torrentfleet.Config {
	return torrentfleet.Config{
		DirectorySource: c.cfg.DirectorySource,
		DirectoryFile:   c.cfg.DirectoryFile,
		WatchDirectory:  c.watch,
		RedisAddrs:      c.cfg.RedisAddrs,
		RedisPassword:   c.cfg.RedisPassword,
		RedisKeyPrefix:  c.cfg.RedisKeyPrefix,
		CatalogDB:       c.cfg.CatalogDB,
		EventLogDB:      c.cfg.EventLogDB,
		InstanceTimeout: c.cfg.InstanceTimeout,
		HTTPTimeout:     c.cfg.HTTPTimeout,
		MaxConcurrency:  c.cfg.MaxConcurrency,
		RecentLimit:     c.cfg.RecentLimit,
	}
}
