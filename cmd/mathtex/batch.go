package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wudi/mathtex"
	"github.com/wudi/mathtex/svgraster"
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		outputDir string
		format    string
		jobs      int
		keepSVG   bool
		noBar     bool
	)

	cmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Render every formula listed in a YAML or JSON manifest",
		Long: `Render every formula listed in a manifest.

Example manifest:

  defaults:
    scale: 2
    background: "#ffffff"
  formulas:
    - id: euler
      tex: 'e^{i\pi} + 1 = 0'
    - id: gauss
      tex: '\int_{-\infty}^{\infty} e^{-x^2} dx'
      inline: true

Each formula is written to <output-dir>/<id>.<format>. Failed formulas are
reported and the remaining ones still render.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest(args[0])
			if err != nil {
				return err
			}
			batch, err := m.jobs()
			if err != nil {
				return err
			}
			conv, err := a.converter()
			if err != nil {
				return err
			}
			defer conv.Close()

			f := conv.Format()
			if format != "" {
				if f, err = svgraster.ParseFormat(format); err != nil {
					return err
				}
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			stderr := cmd.ErrOrStderr()
			var bar *progressbar.ProgressBar
			if !noBar {
				bar = progressbar.NewOptions(
					len(batch),
					progressbar.OptionSetWriter(stderr),
					progressbar.OptionSetWidth(30),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription("formulas"),
					progressbar.OptionThrottle(80*time.Millisecond),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(stderr)
					}),
				)
			}

			var writeErrs []error
			results, err := conv.RenderBatch(cmd.Context(), batch, mathtex.BatchOptions{
				Workers: jobs,
				Progress: func(done, total int, r mathtex.Result) {
					if r.Err == nil {
						if werr := writeResult(outputDir, f, keepSVG, r); werr != nil {
							writeErrs = append(writeErrs, fmt.Errorf("%s: %w", r.Job.ID, werr))
						}
					}
					if bar != nil {
						_ = bar.Add(1)
					}
				},
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(stderr, "%s: %v\n", r.Job.ID, r.Err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d/%d formulas to %s\n", len(results)-failed, len(results), outputDir)
			if len(writeErrs) > 0 {
				return errors.Join(writeErrs...)
			}
			if failed > 0 {
				return fmt.Errorf("%d formulas failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "formulas", "Directory for rendered images")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Image format: png, tiff or bmp (default from config)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Rasterization workers (0 = config, then GOMAXPROCS)")
	cmd.Flags().BoolVar(&keepSVG, "keep-svg", false, "Also write <id>.svg next to each image")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "Disable the progress bar")
	return cmd
}

func writeResult(dir string, f svgraster.Format, keepSVG bool, r mathtex.Result) error {
	target := filepath.Join(dir, r.Job.ID+"."+string(f))
	if err := writeOutput(target, nil, func(w io.Writer) error {
		return r.Image.Encode(w, f)
	}); err != nil {
		return err
	}
	if !keepSVG {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, r.Job.ID+".svg"), []byte(r.SVG), 0644)
}
