// Command surfmesh imports, classifies and remeshes triangulated surfaces.
//
// Usage:
//
//	surfmesh info model.stl
//	surfmesh classify model.stl --out model.msh
//	surfmesh adapt model.stl --target 0.5 --out model.msh --stl adapted.stl
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/surfmesh"
	"github.com/soypat/surfmesh/internal/config"
	"github.com/soypat/surfmesh/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	logFile    string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "surfmesh",
		Short:         "Adaptive surface remeshing",
		Long:          "Import STL or INRIA MESH surfaces, classify their features and remesh them to a target edge length.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "rotating log file")
	root.AddCommand(newInfoCmd(a), newClassifyCmd(a), newAdaptCmd(a), newExportCmd(a))
	return root
}

// setup loads configuration with priority defaults < file < flags and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Logging.LogFile = a.logFile
	}
	var fileCfg logger.FileConfig
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	a.log, err = logger.New(cfg.Logging.Level, fileCfg, true)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	a.cfg = cfg
	return nil
}

// load reads the surface at path into a new mesh, choosing the reader by
// file extension.
func (a *app) load(path string) (*surfmesh.Mesh, error) {
	m := surfmesh.NewMesh()
	m.SetLogger(a.log)
	m.FitTolerance = a.cfg.Classify.FitTolerance
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		err = m.ReadSTL(path, a.cfg.Import.Tolerance)
	case ".mesh":
		err = m.ReadMesh(path)
	default:
		return nil, fmt.Errorf("unknown surface format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) classify(m *surfmesh.Mesh) surfmesh.ClassifyResult {
	return m.Classify(a.cfg.Classify.Angle * math.Pi / 180)
}
