package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/wudi/mathtex/mathml"
)

func newMathMLCommand(a *app) *cobra.Command {
	var (
		output  string
		inline  bool
		native  bool
		options []string
	)

	cmd := &cobra.Command{
		Use:   "mathml <formula|->",
		Short: "Convert a formula to MathML",
		Long: `Convert a LaTeX formula to MathML.

By default MathJax produces the markup, after checking that the formula
typesets. --native converts in pure Go without loading MathJax.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tex, err := readFormula(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			var mml string
			if native {
				mml, err = mathml.New().Convert(tex, !inline)
				if err != nil {
					return err
				}
			} else {
				opts, err := parseOptions(options, inline)
				if err != nil {
					return err
				}
				conv, err := a.converter()
				if err != nil {
					return err
				}
				defer conv.Close()
				if _, mml, err = conv.ConvertFormulaToVectorAndMarkup(cmd.Context(), tex, opts...); err != nil {
					return err
				}
			}
			return writeOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				_, err := io.WriteString(w, mml+"\n")
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Typeset in inline style")
	cmd.Flags().BoolVar(&native, "native", false, "Convert in pure Go instead of MathJax")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Engine option name=value. Can be repeated")
	return cmd
}
