package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/service"
	"github.com/Ning0612/Cloudbrowse/internal/state"
)

func newCacheCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the offline listing cache",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the most recently recorded directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.loadConfig()
			if err != nil {
				return err
			}
			store, err := state.Open(cfg.CacheDir())
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.RecentListings(service.RemoteKey(cfg.Remote), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tENTRIES\tLISTED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Path, info.Count, humanize.Time(info.ListedAt))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of directories")

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Drop snapshots older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.loadConfig()
			if err != nil {
				return err
			}
			store, err := state.Open(cfg.CacheDir())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshots\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "age of the snapshots to drop (0 drops all)")

	cmd.AddCommand(list, prune)
	return cmd
}
