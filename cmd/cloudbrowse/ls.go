package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/core/grouping"
	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/service"
	"github.com/Ning0612/Cloudbrowse/internal/state"
)

func newLsCmd(g *globalFlags) *cobra.Command {
	var (
		sortName string
		offline  bool
	)

	cmd := &cobra.Command{
		Use:   "ls [DIR]",
		Short: "List a remote directory, grouped by the sort policy",
		Long: `List a remote directory. Entries are sorted and grouped by the sort
policy: name groups by first letter, date by day and size by magnitude.

With --offline the last recorded snapshot is printed without contacting the
remote.`,
		Example: `  cloudbrowse ls /photos --sort date-desc
  cloudbrowse ls /photos --offline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) > 0 {
				dir = args[0]
			}
			if offline {
				return runLsOffline(cmd, g, dir, sortName)
			}

			a, err := g.open(cmd.Context(), openOptions{sort: sortName})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.changeDir(cmd.Context(), dir); err != nil {
				return err
			}
			sess := a.svc.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sess.CurrentPath(), sess.Policy().Name())
			printGroups(cmd.OutOrStdout(), sess.Groups(), time.Now())
			return nil
		},
	}

	cmd.Flags().StringVarP(&sortName, "sort", "s", "", "sort policy: name|date|size with -asc or -desc (default from config)")
	cmd.Flags().BoolVar(&offline, "offline", false, "print the cached snapshot instead of listing the remote")
	return cmd
}

func runLsOffline(cmd *cobra.Command, g *globalFlags, dir, sortName string) error {
	cfg, _, err := g.loadConfig()
	if err != nil {
		return err
	}
	if sortName == "" {
		sortName = cfg.Sort
	}
	policy, err := sortpolicy.Lookup(sortName, cfg.Locale)
	if err != nil {
		return err
	}

	store, err := state.Open(cfg.CacheDir())
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.LoadListing(service.RemoteKey(cfg.Remote), "/"+joinParts(splitPath(dir)))
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%w: no cached listing of %s", domain.ErrNotFound, dir)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, cached %s)\n", snap.Path, policy.Name(), humanize.Time(snap.ListedAt))
	printGroups(out, grouping.Arrange(snap.Entries, policy, nil), time.Now())
	return nil
}

// printGroups writes one block per group: the key, then its entries
func printGroups(w io.Writer, groups []domain.Grouping, now time.Time) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "[%s]\n", g.Key)
		for _, e := range g.Entries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", kindMark(e), entrySize(e), entryTime(e, now), displayName(e))
		}
	}
	tw.Flush()
}

func kindMark(e *domain.Entry) string {
	if e.IsDir() {
		return "d"
	}
	return "-"
}

func entrySize(e *domain.Entry) string {
	if e.IsDir() {
		return "-"
	}
	return humanize.Bytes(uint64(e.Size))
}

func entryTime(e *domain.Entry, now time.Time) string {
	if e.ModTime.IsZero() {
		return "-"
	}
	return humanize.RelTime(e.ModTime, now, "ago", "from now")
}

func displayName(e *domain.Entry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}
