package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/torrentfleet/pkg/torrentfleet"
)

func newDownloadingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "downloading",
		Short: "List incomplete transfers across the fleet, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listing(cmd, (*torrentfleet.Fleet).Downloading)
		},
	}
}

func newRecentCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added completed transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listing(cmd, (*torrentfleet.Fleet).Recent)
		},
	}
}

func newErrorsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "errors",
		Short: "List transfers reporting an error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listing(cmd, (*torrentfleet.Fleet).Errored)
		},
	}
}

func (c *cli) listing(cmd *cobra.Command, op func(*torrentfleet.Fleet, context.Context) (torrentfleet.Listing, error)) error {
	f, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	listing, err := op(f, cmd.Context())
	if err != nil {
		return err
	}
	return c.renderer(cmd).listing(listing)
}

func newStatsCmd(c *cli) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show live session statistics aggregated over the fleet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if every > 0 {
				c.watch = true
			}
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			r := c.renderer(cmd)
			retry := newBackoff(time.Second, max(every, time.Second))
			for {
				report, err := f.Stats(cmd.Context())
				if err != nil {
					if every <= 0 {
						return err
					}
					c.log.Warn().Err(err).Msg("stats failed, retrying")
					if !retry.wait(cmd.Context()) {
						return nil
					}
					continue
				}
				retry.reset()
				if err := r.stats(report); err != nil {
					return err
				}
				if every <= 0 || !sleep(cmd.Context(), every) {
					return nil
				}
			}
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat every interval until interrupted; the directory file is watched for changes")
	return cmd
}

func newSummaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the master replica set and its members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			s, err := f.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return c.renderer(cmd).summary(s)
		},
	}
}

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search the catalog; every term must match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := f.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.renderer(cmd).search(res)
		},
	}
}

func newLogCmd(c *cli) *cobra.Command {
	var (
		types []string
		count int
		deny  bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the newest event-log entries of the given types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := torrentfleet.LogLines(f.ViewLog(cmd.Context(), !deny, types, count))
			if err != nil {
				return err
			}
			return c.renderer(cmd).logEntries(entries)
		},
	}
	cmd.Flags().StringSliceVar(&types, "types", []string{"error", "warn"}, "entry types to include")
	cmd.Flags().IntVar(&count, "count", 20, "maximum entries to show")
	cmd.Flags().BoolVar(&deny, "deny", false, "view as a caller without log access")

	cmd.AddCommand(newLogAddCmd(c))
	return cmd
}

func newLogAddCmd(c *cli) *cobra.Command {
	var entry torrentfleet.LogEntry
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an entry to the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if entry.Message == "" {
				return fmt.Errorf("--message is required")
			}
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			e, err := f.AppendLog(cmd.Context(), entry)
			if err != nil {
				return err
			}
			return c.renderer(cmd).logEntries([]torrentfleet.LogEntry{e})
		},
	}
	cmd.Flags().StringVar(&entry.Type, "type", "info", "entry type")
	cmd.Flags().StringVar(&entry.Message, "message", "", "entry message")
	cmd.Flags().StringVar(&entry.Traceback, "traceback", "", "optional traceback")
	return cmd
}

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the content catalog",
	}

	var rec torrentfleet.ContentRecord
	add := &cobra.Command{
		Use:   "add",
		Short: "Insert or replace a catalog record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rec.ID <= 0 {
				return fmt.Errorf("--id must be positive")
			}
			f, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := f.PutContent(cmd.Context(), rec); err != nil {
				return err
			}
			c.log.Info().Int64("id", rec.ID).Msg("catalog record stored")
			return nil
		},
	}
	add.Flags().Int64Var(&rec.ID, "id", 0, "record id")
	add.Flags().StringVar(&rec.Name, "name", "", "display name")
	add.Flags().StringVar(&rec.Info, "info", "", "searchable description")
	add.Flags().Int64Var(&rec.Size, "size", 0, "size in bytes")

	cmd.AddCommand(add)
	return cmd
}

func newDirectoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage the instance directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "publish",
		Short: "Copy the master replica set of the directory file into Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(c.cfg.RedisAddrs) == 0 {
				return fmt.Errorf("--redis-addr is required")
			}
			src := torrentfleet.NewFileDirectory(c.cfg.DirectoryFile, nil)
			s, err := torrentfleet.PublishDirectory(cmd.Context(), src, c.libConfig())
			if err != nil {
				return err
			}
			return c.renderer(cmd).summary(s)
		},
	})
	return cmd
}
