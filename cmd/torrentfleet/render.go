package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bft-labs/torrentfleet/internal/cliconfig"
	"github.com/bft-labs/torrentfleet/pkg/torrentfleet"
)

type renderer struct {
	out    io.Writer
	errOut io.Writer
	json   bool
}

func (c *cli) renderer(cmd *cobra.Command) *renderer {
	return &renderer{
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		json:   c.cfg.Output == cliconfig.OutputJSON,
	}
}

type failureView struct {
	Instance string `json:"instance"`
	Op       string `json:"op"`
	Error    string `json:"error"`
}

type transferView struct {
	Instance    string    `json:"instance"`
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PercentDone float64   `json:"percent_done"`
	Size        int64     `json:"size"`
	AddedAt     time.Time `json:"added_at"`
	Error       string    `json:"error,omitempty"`
	Playlist    string    `json:"playlist"`
}

func failures(p torrentfleet.PartialFailure) []failureView {
	out := make([]failureView, 0, len(p))
	for _, f := range p {
		out = append(out, failureView{Instance: f.Instance, Op: f.Op, Error: f.Err.Error()})
	}
	return out
}

func (r *renderer) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) partial(p torrentfleet.PartialFailure) {
	for _, f := range p {
		fmt.Fprintf(r.errOut, "warning: %s %s: %v\n", f.Instance, f.Op, f.Err)
	}
}

func (r *renderer) listing(l torrentfleet.Listing) error {
	if r.json {
		views := make([]transferView, len(l.Records))
		for i, rec := range l.Records {
			views[i] = transferView{
				Instance:    rec.Instance,
				ID:          rec.ID,
				Name:        rec.Name,
				PercentDone: rec.PercentDone,
				Size:        rec.SizeWhenDone,
				AddedAt:     rec.AddedAt,
				Error:       rec.ErrorString,
				Playlist:    rec.PlaylistName(),
			}
		}
		return r.encode(struct {
			Records []transferView `json:"records"`
			Partial []failureView  `json:"partial"`
		}{views, failures(l.Partial)})
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tID\tNAME\tDONE\tSIZE\tADDED\tERROR")
	for _, rec := range l.Records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.1f%%\t%s\t%s\t%s\n",
			rec.Instance, rec.ID, rec.Name, rec.PercentDone*100,
			humanize.Bytes(nonNegative(rec.SizeWhenDone)), humanize.Time(rec.AddedAt), rec.ErrorString)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	r.partial(l.Partial)
	return nil
}

func (r *renderer) stats(s torrentfleet.StatsReport) error {
	a := s.Aggregate
	if r.json {
		return r.encode(struct {
			Master    string                      `json:"master"`
			Aggregate torrentfleet.AggregateStats `json:"aggregate"`
			Partial   []failureView               `json:"partial"`
		}{s.Master.Name, a, failures(s.Partial)})
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Replica set", s.Master.Name},
		{"Instances", fmt.Sprintf("%d of %d", a.Instances, len(s.Instances))},
		{"Active transfers", humanize.Comma(a.ActiveTransferCount)},
		{"Download speed", humanize.Bytes(nonNegative(a.DownloadSpeed)) + "/s"},
		{"Upload speed", humanize.Bytes(nonNegative(a.UploadSpeed)) + "/s"},
		{"Downloaded (session)", humanize.Bytes(nonNegative(a.DownloadedBytes))},
		{"Uploaded (session)", humanize.Bytes(nonNegative(a.UploadedBytes))},
		{"Downloaded (total)", humanize.Bytes(nonNegative(a.TotalDownloadedBytes))},
		{"Uploaded (total)", humanize.Bytes(nonNegative(a.TotalUploadedBytes))},
		{"Active for (session)", (time.Duration(a.SecondsActive) * time.Second).String()},
		{"Active for (total)", (time.Duration(a.TotalSecondsActive) * time.Second).String()},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	r.partial(s.Partial)
	return nil
}

func (r *renderer) summary(s torrentfleet.Summary) error {
	if r.json {
		return r.encode(struct {
			ReplicaSet string   `json:"replica_set"`
			Master     string   `json:"master"`
			Instances  []string `json:"instances"`
		}{s.Master.Name, s.Master.Master, s.Instances})
	}
	fmt.Fprintf(r.out, "replica set: %s\nmaster:      %s\ninstances:   %s\n",
		s.Master.Name, s.Master.Master, strings.Join(s.Instances, ", "))
	return nil
}

func (r *renderer) search(res torrentfleet.SearchResult) error {
	if r.json {
		type hit struct {
			ID       int64   `json:"id"`
			Name     string  `json:"name"`
			Size     int64   `json:"size"`
			Score    float64 `json:"score"`
			Playlist string  `json:"playlist"`
		}
		hits := make([]hit, len(res.Records))
		for i, rec := range res.Records {
			hits[i] = hit{ID: rec.ID, Name: rec.Name, Size: rec.Size, Score: res.Hits[i].Score, Playlist: rec.PlaylistName()}
		}
		return r.encode(struct {
			Query string `json:"query"`
			Hits  []hit  `json:"hits"`
		}{res.Query, hits})
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tSCORE\tPLAYLIST")
	for i, rec := range res.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%s\n",
			rec.ID, rec.Name, humanize.Bytes(nonNegative(rec.Size)), res.Hits[i].Score, rec.PlaylistName())
	}
	return tw.Flush()
}

func (r *renderer) logEntries(entries []torrentfleet.LogEntry) error {
	if r.json {
		type entry struct {
			ID        string    `json:"id,omitempty"`
			Time      time.Time `json:"time"`
			Type      string    `json:"type"`
			Message   string    `json:"message"`
			Traceback string    `json:"traceback,omitempty"`
		}
		out := make([]entry, len(entries))
		for i, e := range entries {
			out[i] = entry{e.ID, e.Time, e.Type, e.Message, e.Traceback}
		}
		return r.encode(out)
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTYPE\tMESSAGE")
	for _, e := range entries {
		when := "-"
		if !e.Time.IsZero() {
			when = humanize.Time(e.Time)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", when, e.Type, e.Message)
		if e.Traceback != "" {
			for _, line := range strings.Split(strings.TrimRight(e.Traceback, "\n"), "\n") {
				fmt.Fprintf(tw, "\t\t  %s\n", line)
			}
		}
	}
	return tw.Flush()
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
