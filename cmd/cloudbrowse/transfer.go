package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/core/checksum"
	"github.com/Ning0612/Cloudbrowse/internal/core/conflict"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

func newGetCmd(g *globalFlags) *cobra.Command {
	var (
		algo   string
		expect string
	)

	cmd := &cobra.Command{
		Use:   "get REMOTE_FILE [LOCAL_PATH]",
		Short: "Download a file",
		Example: `  cloudbrowse get /photos/cat.jpg
  cloudbrowse get /backup.tar ./backup.tar --checksum sha256 --expect 9f86d0...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expect != "" && algo == "" {
				algo = string(checksum.SHA256)
			}
			alg, err := parseAlgorithm(algo)
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context(), openOptions{progress: true})
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if e.IsDir() {
				return fmt.Errorf("%s: %w", e.Path, domain.ErrNotFile)
			}

			local := e.Name
			if len(args) > 1 {
				local = args[1]
				if info, err := os.Stat(local); err == nil && info.IsDir() {
					local = filepath.Join(local, e.Name)
				}
			}

			f, err := os.Create(local)
			if err != nil {
				return err
			}
			var w io.Writer = f
			var h *checksum.Hasher
			if alg != "" {
				if w, h, err = checksum.TeeWriter(f, alg); err != nil {
					f.Close()
					os.Remove(local)
					return err
				}
			}

			ok := a.svc.Session().Download(cmd.Context(), e, w)
			if cerr := f.Close(); ok && cerr != nil {
				return cerr
			}
			if !ok {
				os.Remove(local)
				return mutationError(a, args[0])
			}

			if h != nil {
				fmt.Fprintln(cmd.OutOrStdout(), h.String())
				if expect != "" {
					if err := h.Verify(expect); err != nil {
						return fmt.Errorf("%s: %w", local, err)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&algo, "checksum", "", "print the digest of the downloaded data (md5 or sha256)")
	cmd.Flags().StringVar(&expect, "expect", "", "fail unless the digest matches this hex value")
	return cmd
}

func newPutCmd(g *globalFlags) *cobra.Command {
	var (
		algo       string
		onConflict string
	)

	cmd := &cobra.Command{
		Use:   "put LOCAL_FILE [REMOTE_DIR]",
		Short: "Upload a file into a remote directory",
		Long: `Upload a file into a remote directory. When the name is taken,
--on-conflict decides: fail (default), overwrite, skip or keep-both, which
uploads as "name (1).ext".

With --checksum the file is read back after the upload and compared.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := conflict.ParseStrategy(onConflict)
			if err != nil {
				return err
			}
			alg, err := parseAlgorithm(algo)
			if err != nil {
				return err
			}
			dir := "/"
			if len(args) > 1 {
				dir = args[1]
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s: %w", args[0], domain.ErrNotFile)
			}

			a, err := g.open(cmd.Context(), openOptions{progress: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.changeDir(cmd.Context(), dir); err != nil {
				return err
			}
			sess := a.svc.Session()

			decision, err := conflict.Resolve(strategy, filepath.Base(args[0]), sess.Find)
			if err != nil {
				return err
			}
			if decision.Action == conflict.ActionSkip {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %s\n", decision.Name, decision.Reason)
				return nil
			}

			var r io.Reader = f
			var local *checksum.Hasher
			if alg != "" {
				if r, local, err = checksum.TeeReader(f, alg); err != nil {
					return err
				}
			}

			if !sess.Upload(cmd.Context(), decision.Name, r, info.Size()) {
				return mutationError(a, decision.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s%s\n", sess.CurrentPath(), decision.Name)

			if local == nil {
				return nil
			}
			return verifyUpload(cmd, a, decision.Name, local)
		},
	}

	cmd.Flags().StringVar(&algo, "checksum", "", "verify the upload by reading it back (md5 or sha256)")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "fail", "fail, overwrite, skip or keep-both")
	return cmd
}

// verifyUpload downloads name from the current directory and compares it
// with the digest of the uploaded data
func verifyUpload(cmd *cobra.Command, a *app, name string, local *checksum.Hasher) error {
	sess := a.svc.Session()
	e := sess.Find(name)
	if e == nil {
		return fmt.Errorf("%w: %s missing after upload", domain.ErrNotFound, name)
	}

	remote, err := checksum.New(local.Algorithm())
	if err != nil {
		return err
	}
	if !sess.Download(cmd.Context(), e, remote) {
		return mutationError(a, e.Path)
	}
	if err := remote.Verify(local.Sum()); err != nil {
		if errors.Is(err, checksum.ErrMismatch) {
			return fmt.Errorf("%s: uploaded data differs: %w", e.Path, err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), local.String(), "verified")
	return nil
}

func parseAlgorithm(s string) (checksum.Algorithm, error) {
	if s == "" {
		return "", nil
	}
	return checksum.ParseAlgorithm(s)
}
