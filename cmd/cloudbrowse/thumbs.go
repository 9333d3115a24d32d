package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

func newThumbsCmd(g *globalFlags) *cobra.Command {
	var (
		policy string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "thumbs [DIR]",
		Short: "Prefetch thumbnails of a directory and show the result",
		Long: `List a directory and prefetch a preview for every entry, in list order.
Entries without a remote preview get the placeholder image.

The download policy defaults to "always"; pass --policy config to honour
thumbnails.download and the network mode from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) > 0 {
				dir = args[0]
			}
			if _, err := domain.ParseDownloadPolicy(policy); err != nil && policy != "config" {
				return err
			}

			a, err := g.open(cmd.Context(), openOptions{download: policy})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.changeDir(cmd.Context(), dir); err != nil {
				return err
			}
			sess := a.svc.Session()
			sess.Wait()

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			var fetched, placeholders, missing int
			for _, e := range sess.Entries() {
				status := "-"
				thumb := e.Thumbnail()
				switch {
				case thumb == nil:
					missing++
				case thumb.Placeholder:
					placeholders++
					status = "placeholder"
				default:
					fetched++
					b := thumb.Image.Bounds()
					status = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
					if outDir != "" {
						if err := imaging.Save(thumb.Image, filepath.Join(outDir, thumbFileName(e))); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(tw, "%s\t%s\n", displayName(e), status)
			}
			tw.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "%d fetched, %d placeholders, %d not loaded\n", fetched, placeholders, missing)
			return a.failed()
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(domain.DownloadAlways), "always, wifi-only, never or config")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "save fetched previews as PNG files into this directory")
	return cmd
}

// thumbFileName maps an entry to a flat PNG file name
func thumbFileName(e *domain.Entry) string {
	name := strings.Trim(e.Path, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = "root"
	}
	return name + ".png"
}
