package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/events"
	"github.com/Ning0612/Cloudbrowse/internal/session"
)

func newBrowseCmd(g *globalFlags) *cobra.Command {
	var (
		refresh    time.Duration
		showEvents bool
		sortName   string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the remote interactively",
		Long: `Start an interactive shell on the remote root. Thumbnails are
prefetched according to thumbnails.download and the network mode, and
edits of that setting in the config file apply to the next listing.

Type "help" in the shell for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.open(ctx, openOptions{download: "config", sort: sortName})
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.svc.Session()
			if showEvents {
				ch := sess.Subscribe()
				go printEvents(cmd.ErrOrStderr(), ch)
			}
			if refresh > 0 {
				if err := a.svc.StartAutoRefresh(ctx, refresh); err != nil {
					return err
				}
			}

			sh := newShell(sess, cmd.OutOrStdout())
			if err := sess.StartListing(ctx); err != nil {
				return err
			}
			return sh.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 0, "re-list the current directory on this interval")
	cmd.Flags().BoolVar(&showEvents, "events", false, "print session events to stderr")
	cmd.Flags().StringVarP(&sortName, "sort", "s", "", "initial sort policy")
	return cmd
}

func printEvents(w io.Writer, ch <-chan events.Event) {
	for ev := range ch {
		fmt.Fprintf(w, "event %s %s count=%d %s\n", ev.Type, ev.Path, ev.Count, ev.Detail)
	}
}

// errQuit ends the shell loop
var errQuit = errors.New("quit")

// shell executes line commands against a session
type shell struct {
	sess *session.Session
	out  io.Writer
}

func newShell(sess *session.Session, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sh.prompt()
	for scanner.Scan() {
		err := sh.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		sh.prompt()
	}
	return scanner.Err()
}

func (sh *shell) prompt() {
	fmt.Fprintf(sh.out, "%s [%s]> ", sh.sess.CurrentPath(), sh.sess.SelectionMode())
}

// exec runs one command line
func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	// Names may contain spaces; commands taking one name use the rest of the line
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

	switch cmd {
	case "help", "?":
		sh.help()
	case "quit", "exit", "q":
		return errQuit
	case "ls":
		printGroups(sh.out, sh.sess.Groups(), time.Now())
	case "pwd":
		fmt.Fprintln(sh.out, sh.sess.CurrentPath())
	case "path":
		for i, seg := range sh.sess.Path() {
			fmt.Fprintf(sh.out, "%d %s\n", i, seg.Entry.Name)
		}
	case "cd":
		return sh.cd(ctx, rest)
	case "up", "..":
		return sh.sess.Up(ctx)
	case "crumb":
		if len(args) != 1 {
			return fmt.Errorf("usage: crumb INDEX")
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		return sh.sess.NavigateTo(ctx, i)
	case "refresh":
		return sh.sess.Refresh(ctx)
	case "stop":
		sh.sess.StopListing()
	case "sort":
		return sh.sort(args)
	case "select":
		mode := sh.sess.ToggleSelectionMode()
		fmt.Fprintf(sh.out, "selection mode %s\n", mode)
	case "pick":
		e, err := sh.entry(rest)
		if err != nil {
			return err
		}
		if sh.sess.Select(e) {
			fmt.Fprintf(sh.out, "selected %s\n", e.Name)
		} else {
			fmt.Fprintf(sh.out, "deselected %s\n", e.Name)
		}
	case "selected":
		for _, e := range sh.sess.Selected() {
			fmt.Fprintln(sh.out, e.Path)
		}
	case "mkdir":
		return sh.result(sh.sess.CreateDirectory(ctx, rest), "created "+rest)
	case "rm":
		return sh.remove(ctx, rest)
	case "rename":
		if len(args) != 2 {
			return fmt.Errorf("usage: rename OLD NEW")
		}
		return sh.result(sh.sess.Rename(ctx, args[0], args[1]), "renamed "+args[0])
	case "mv":
		if len(args) != 2 {
			return fmt.Errorf("usage: mv NAME DEST_PATH")
		}
		e, err := sh.entry(args[0])
		if err != nil {
			return err
		}
		return sh.result(sh.sess.Move(ctx, e.Path, args[1]), "moved "+e.Name)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (sh *shell) cd(ctx context.Context, name string) error {
	switch name {
	case "", "/":
		return sh.sess.NavigateTo(ctx, 0)
	case "..":
		return sh.sess.Up(ctx)
	}
	e, err := sh.entry(name)
	if err != nil {
		return err
	}
	return sh.sess.Open(ctx, e)
}

func (sh *shell) sort(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(sh.out, sh.sess.Policy().Name())
		return nil
	}
	name := strings.Join(args, "-")
	p, err := sortpolicy.Lookup(name, "")
	if err != nil {
		return err
	}
	switch p.Name() {
	case "name-asc":
		sh.sess.GroupByNameAscending()
	case "name-desc":
		sh.sess.GroupByNameDescending()
	case "date-asc":
		sh.sess.GroupByDateAscending()
	case "date-desc":
		sh.sess.GroupByDateDescending()
	case "size-asc":
		sh.sess.GroupBySizeAscending()
	case "size-desc":
		sh.sess.GroupBySizeDescending()
	}
	fmt.Fprintf(sh.out, "sorted by %s\n", sh.sess.Policy().Name())
	return nil
}

// remove deletes the named entry, or every selected entry without a name
func (sh *shell) remove(ctx context.Context, name string) error {
	if name != "" {
		e, err := sh.entry(name)
		if err != nil {
			return err
		}
		return sh.result(sh.sess.DeleteResource(ctx, e), "deleted "+e.Name)
	}

	selected := sh.sess.Selected()
	if len(selected) == 0 {
		return fmt.Errorf("usage: rm NAME, or pick entries in selection mode")
	}
	var failed int
	for _, e := range selected {
		if sh.sess.DeleteResource(ctx, e) {
			fmt.Fprintf(sh.out, "deleted %s\n", e.Name)
		} else {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(selected))
	}
	return nil
}

func (sh *shell) entry(name string) (*domain.Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("missing entry name")
	}
	e := sh.sess.Find(name)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return e, nil
}

func (sh *shell) result(ok bool, msg string) error {
	if !ok {
		return errDeclined
	}
	fmt.Fprintln(sh.out, msg)
	return nil
}

func (sh *shell) help() {
	fmt.Fprint(sh.out, `commands:
  ls                  list the current directory by group
  pwd, path           show the current directory or the breadcrumb
  cd NAME|..|/        enter a directory
  up                  leave the current directory
  crumb INDEX         jump to a breadcrumb level
  refresh, stop       re-list, or stop the thumbnail prefetch
  sort FIELD [DIR]    name|date|size, asc|desc
  select              toggle multi-selection
  pick NAME           select or deselect an entry
  selected            list the selection
  mkdir NAME          create a directory
  rm [NAME]           delete an entry, or the selection
  rename OLD NEW      rename an entry
  mv NAME DEST_PATH   move an entry to an absolute path
  quit
`)
}
