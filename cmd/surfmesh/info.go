package main

import (
	"fmt"
	"math"

	"github.com/soypat/surfmesh"
	"github.com/soypat/surfmesh/internal/report"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var histogram string
	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Print mesh statistics",
		Long:  "Display vertex, edge and triangle counts, edge lengths and triangle quality of a surface.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.load(args[0])
			if err != nil {
				return err
			}
			printInfo(cmd, m)
			if histogram != "" {
				return report.QualityHistogram(m.Quality().Values, 20, histogram)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&histogram, "hist", "", "save a triangle quality histogram image")
	return cmd
}

func printInfo(cmd *cobra.Command, m *surfmesh.Mesh) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "vertices:  %d\n", m.NumVertices())
	fmt.Fprintf(w, "edges:     %d\n", m.NumEdges())
	fmt.Fprintf(w, "triangles: %d\n", m.NumTriangles())
	fmt.Fprintf(w, "size:      %.6g\n", m.LC)
	lengths := m.EdgeLengths()
	if len(lengths) > 0 {
		min, max, sum := math.Inf(1), 0.0, 0.0
		for _, l := range lengths {
			min = math.Min(min, l)
			max = math.Max(max, l)
			sum += l
		}
		fmt.Fprintf(w, "edge length: min %.6g  mean %.6g  max %.6g\n", min, sum/float64(len(lengths)), max)
	}
	if q := m.Quality(); len(q.Values) > 0 {
		fmt.Fprintf(w, "quality:     min %.4f  mean %.4f  max %.4f\n", q.Min, q.Mean, q.Max)
	}
}
