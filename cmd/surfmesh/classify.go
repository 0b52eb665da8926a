package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		angle float64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Detect surface patches, feature curves and model vertices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("angle") {
				a.cfg.Classify.Angle = angle
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			m, err := a.load(args[0])
			if err != nil {
				return err
			}
			res := a.classify(m)
			fmt.Fprintf(cmd.OutOrStdout(), "surfaces: %d (%d planes, %d spheres)\ncurves:   %d\ncorners:  %d\n",
				res.Surfaces, res.Planes, res.Spheres, res.Curves, res.Corners)
			if out != "" {
				return m.SaveGmsh(out)
			}
			return nil
		},
	}
	cmd.Flags().Float64VarP(&angle, "angle", "a", 40, "feature angle in degrees")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the classified mesh in Gmsh format")
	return cmd
}
