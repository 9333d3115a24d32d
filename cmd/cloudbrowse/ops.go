package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// errDeclined is returned when the remote declined a mutation without a
// reportable error, e.g. creating a directory that already exists
var errDeclined = errors.New("remote declined the operation")

func newMkdirCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			parent, name := splitParent(args[0])
			if name == "" {
				return fmt.Errorf("%w: missing directory name", domain.ErrBadRequest)
			}
			if err := a.changeDir(cmd.Context(), parent); err != nil {
				return err
			}
			if !a.svc.Session().CreateDirectory(cmd.Context(), name) {
				return mutationError(a, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
			return nil
		},
	}
}

func newRmCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm PATH...",
		Aliases: []string{"delete"},
		Short:   "Delete files or directories (directories recursively)",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			for _, p := range args {
				e, err := a.find(cmd.Context(), p)
				if err != nil {
					return err
				}
				if !a.svc.Session().DeleteResource(cmd.Context(), e) {
					return mutationError(a, p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", e.Path)
			}
			return nil
		},
	}
}

func newMvCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mv SRC DST",
		Short: "Move a file or directory to a new absolute path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			dst := "/" + joinParts(splitPath(args[1]))
			if !a.svc.Session().Move(cmd.Context(), e.Path, dst) {
				return mutationError(a, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s -> %s\n", e.Path, dst)
			return nil
		},
	}
}

func newRenameCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename PATH NEW_NAME",
		Short: "Rename an entry within its directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !a.svc.Session().Rename(cmd.Context(), e.Name, args[1]) {
				return mutationError(a, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s -> %s\n", e.Name, args[1])
			return nil
		},
	}
}

// mutationError prefers the reported remote error over the generic one
func mutationError(a *app, p string) error {
	if err := a.failed(); err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", p, errDeclined)
}
