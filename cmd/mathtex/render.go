package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/mathtex"
	"github.com/wudi/mathtex/svgraster"
)

func newRenderCommand(a *app) *cobra.Command {
	var (
		output     string
		format     string
		scale      float64
		dpi        int
		background string
		foreground string
		inline     bool
		options    []string
	)

	cmd := &cobra.Command{
		Use:   "render <formula|->",
		Short: "Render a formula to a PNG, TIFF or BMP image",
		Long: `Render a LaTeX formula to a raster image.

The formula is read from the argument, or from stdin when it is "-".
The image format follows --format, then the output file extension,
then the config (png by default).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tex, err := readFormula(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts, err := parseOptions(options, inline)
			if err != nil {
				return err
			}
			render := mathtex.RenderOptions{Scale: scale, DPI: dpi, Options: opts}
			if background != "" {
				c, err := svgraster.ParseColor(background)
				if err != nil {
					return err
				}
				render.Background = c
			}
			if foreground != "" {
				c, err := svgraster.ParseColor(foreground)
				if err != nil {
					return err
				}
				render.Foreground = c
			}

			conv, err := a.converter()
			if err != nil {
				return err
			}
			defer conv.Close()

			f, err := outputFormat(format, output, conv.Format())
			if err != nil {
				return err
			}
			buf, _, err := conv.RenderFormulaToImage(cmd.Context(), tex, render)
			if err != nil {
				return err
			}
			return writeOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return buf.Encode(w, f)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Image format: png, tiff or bmp")
	cmd.Flags().Float64VarP(&scale, "scale", "s", 0, "Pixel scale factor (0 = config)")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "Resolution recorded in the image (0 = config)")
	cmd.Flags().StringVar(&background, "background", "", "Background color, e.g. #ffffff (default transparent)")
	cmd.Flags().StringVar(&foreground, "foreground", "", "Glyph color (default black)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Typeset in inline style")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Engine option name=value. Can be repeated")
	return cmd
}

func newSVGCommand(a *app) *cobra.Command {
	var (
		output  string
		inline  bool
		options []string
	)

	cmd := &cobra.Command{
		Use:   "svg <formula|->",
		Short: "Convert a formula to an SVG document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tex, err := readFormula(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts, err := parseOptions(options, inline)
			if err != nil {
				return err
			}
			conv, err := a.converter()
			if err != nil {
				return err
			}
			defer conv.Close()

			svg, err := conv.ConvertFormulaToVector(cmd.Context(), tex, opts...)
			if err != nil {
				return err
			}
			return writeOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				_, err := io.WriteString(w, svg+"\n")
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Typeset in inline style")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Engine option name=value. Can be repeated")
	return cmd
}

func readFormula(arg string, stdin io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading formula: %w", err)
	}
	return string(data), nil
}

func outputFormat(flag, output string, fallback svgraster.Format) (svgraster.Format, error) {
	if flag != "" {
		return svgraster.ParseFormat(flag)
	}
	if ext := filepath.Ext(output); output != "-" && ext != "" {
		if f, err := svgraster.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return fallback, nil
}

// writeOutput writes to path, or to stdout when path is "-". A partial file
// is removed when write fails.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" || path == "" {
		return write(stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
