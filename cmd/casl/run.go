package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raidos23/casl/internal/config"
	"github.com/raidos23/casl/internal/engine"
	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/plugin"
	"github.com/raidos23/casl/internal/registry"
)

type runOptions struct {
	phase     string
	outputDir string
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.phase, "phase", "pre", "Pipeline phase to execute (pre or post)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "dist", "Directory holding build artifacts, relative to the workspace")

	return cmd
}

func runRun(cmd *cobra.Command, flags *rootFlags, opts *runOptions) error {
	phase, err := parsePhase(opts.phase)
	if err != nil {
		return err
	}

	log, err := newLogger(flags)
	if err != nil {
		return err
	}
	log = log.WithPhase(string(phase))

	workspace, err := filepath.Abs(flags.workspace)
	if err != nil {
		return err
	}

	cfg, err := config.Load(resolveAgainst(workspace, flags.configPath))
	if err != nil {
		return err
	}

	reg := registry.New(phase, log)
	registered, failures := reg.Discover(resolveAgainst(workspace, flags.pluginsDir))
	for _, f := range failures {
		log.Warnf("rejected plugin candidate %s: %v", f.Candidate, f.Err)
	}
	log.Infof("%d plugin(s) registered", registered)

	outputDir := resolveAgainst(workspace, opts.outputDir)
	var artifacts []string
	if phase == plugin.PhasePost {
		artifacts, err = collectArtifacts(outputDir)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := hostctx.New(ctx, hostctx.Options{
		WorkspaceRoot:   workspace,
		Logger:          log,
		Artifacts:       artifacts,
		RequiredFiles:   cfg.RequiredFiles,
		IncludePatterns: cfg.FilePatterns,
		ExcludePatterns: cfg.ExcludePatterns,
	})
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		Registry: reg,
		Config:   cfg,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	rep, err := eng.Run(ctx, rc)
	if rep != nil {
		fmt.Fprint(cmd.OutOrStdout(), rep.Summary())
	}
	if err != nil {
		return err
	}
	if !rep.OK() {
		return fmt.Errorf("%s phase finished with failures", phase)
	}
	return nil
}

func parsePhase(s string) (plugin.Phase, error) {
	switch plugin.Phase(s) {
	case plugin.PhasePre:
		return plugin.PhasePre, nil
	case plugin.PhasePost:
		return plugin.PhasePost, nil
	default:
		return "", fmt.Errorf("unknown phase %q (want pre or post)", s)
	}
}

func resolveAgainst(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func collectArtifacts(outputDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return hostctx.FilterArtifacts(paths, outputDir), nil
}
