package main

import (
	"fmt"

	"github.com/soypat/surfmesh"
	"github.com/soypat/surfmesh/internal/report"
	"github.com/soypat/surfmesh/meshio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultTargetDivisions is the number of target edge lengths spanning the
// model size when no target size is configured.
const defaultTargetDivisions = 20

type outputs struct {
	msh, stl, png string
}

func (o *outputs) flags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.msh, "out", "o", "", "write the mesh in Gmsh format")
	cmd.Flags().StringVar(&o.stl, "stl", "", "write the mesh as binary STL")
	cmd.Flags().StringVar(&o.png, "png", "", "write a shaded snapshot image")
}

func (o *outputs) write(m *surfmesh.Mesh) error {
	if o.msh != "" {
		if err := m.SaveGmsh(o.msh); err != nil {
			return err
		}
	}
	if o.stl != "" {
		if err := meshio.SaveSTL(o.stl, m.Soup()); err != nil {
			return err
		}
	}
	if o.png != "" {
		if err := report.Snapshot(m.Soup(), o.png, 640, 480, report.DefaultView); err != nil {
			return fmt.Errorf("rendering %s: %w", o.png, err)
		}
	}
	return nil
}

func newAdaptCmd(a *app) *cobra.Command {
	var (
		target float64
		passes int
		smooth bool
		out    outputs
	)
	cmd := &cobra.Command{
		Use:   "adapt [file]",
		Short: "Remesh a surface towards a target edge length",
		Long: "Classify the surface then split, collapse and swap edges until their lengths approach the target size. " +
			"Smoothed vertices are projected back onto the fitted analytic surfaces or the original triangles.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("target") {
				cfg.Adapt.TargetSize = target
			}
			if cmd.Flags().Changed("passes") {
				cfg.Adapt.MaxPasses = passes
			}
			if cmd.Flags().Changed("smooth") {
				cfg.Adapt.Smooth = smooth
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			m, err := a.load(args[0])
			if err != nil {
				return err
			}
			a.classify(m)
			size := cfg.Adapt.TargetSize
			if size == 0 {
				size = m.LC / defaultTargetDivisions
			}
			ref := surfmesh.NewProjector(m.Clone())
			total, n, err := m.Adapt(size, cfg.Adapt.MaxPasses, cfg.Adapt.Smooth, ref)
			if err != nil {
				return err
			}
			a.log.Info("adapt finished", zap.Float64("target", size), zap.Int("passes", n), zap.Int("modifications", total))
			printInfo(cmd, m)
			return out.write(m)
		},
	}
	cmd.Flags().Float64VarP(&target, "target", "t", 0, "target edge length, 0 uses the model size / 20")
	cmd.Flags().IntVarP(&passes, "passes", "n", 10, "maximum adaptation passes")
	cmd.Flags().BoolVar(&smooth, "smooth", true, "smooth vertices after each pass")
	out.flags(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		classify bool
		out      outputs
	)
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Convert a surface to Gmsh, STL or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.load(args[0])
			if err != nil {
				return err
			}
			if classify {
				a.classify(m)
			}
			return out.write(m)
		},
	}
	cmd.Flags().BoolVar(&classify, "classify", false, "classify before writing")
	out.flags(cmd)
	return cmd
}
