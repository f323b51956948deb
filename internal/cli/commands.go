package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gojags/internal/engine"
	"gojags/internal/engine/jags"
	"gojags/internal/model"
	"gojags/internal/registry"
	"gojags/pkg/ndarray"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <model-file>",
		Short: "Check model syntax and list its variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			s := reg.NewSession()
			defer s.Close()
			if err := s.CheckModel(args[0]); err != nil {
				return err
			}
			for _, v := range s.VariableNames() {
				fmt.Fprintln(a.out, v)
			}
			return nil
		},
	}
}

type sampleFlags struct {
	data       string
	init       string
	chains     int
	tune       int
	iterations int
	vars       string
	thin       int
	monitor    string
	out        string
	quiet      bool
}

func (a *app) sampleCmd() *cobra.Command {
	var f sampleFlags
	cmd := &cobra.Command{
		Use:   "sample <model-file>",
		Short: "Compile, adapt and sample a model, writing draws as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSample(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.data, "data", "", "Data file (.json, .yaml or .toml)")
	fl.StringVar(&f.init, "init", "", "Initial values file: one object, or a JSON list with one object per chain")
	fl.IntVar(&f.chains, "chains", 1, "Number of chains")
	fl.IntVar(&f.tune, "tune", 0, "Adaptation iterations (0 = default, negative skips)")
	fl.IntVarP(&f.iterations, "iterations", "n", 1000, "Iterations to sample")
	fl.StringVar(&f.vars, "vars", "", "Comma-separated variables to monitor (default all)")
	fl.IntVar(&f.thin, "thin", 1, "Thinning interval")
	fl.StringVar(&f.monitor, "type", "trace", "Monitor type")
	fl.StringVarP(&f.out, "out", "o", "", "Output file (default stdout)")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func (a *app) runSample(cmd *cobra.Command, file string, f sampleFlags) error {
	var data ndarray.Map
	if f.data != "" {
		d, err := ndarray.LoadFile(f.data)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		data = d
	}
	start, err := loadInit(f.init)
	if err != nil {
		return fmt.Errorf("load initial values: %w", err)
	}
	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	opts := model.Options{File: file, Data: data, Start: start, Chains: f.chains, Tune: f.tune}
	if !f.quiet {
		opts.Progress = a.errw
	}
	ctx := cmd.Context()
	m, err := model.New(ctx, reg, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	a.log.Info().Int("chains", m.NumChains()).Int("iter", m.Iter()).Msg("model initialized")

	samples, err := m.Sample(ctx, f.iterations, model.SampleOptions{Vars: splitCSV(f.vars), Thin: f.thin, Type: f.monitor})
	if err != nil {
		return err
	}
	a.log.Info().Int("iter", m.Iter()).Int("vars", len(samples)).Msg("sampling done")

	w := a.out
	if f.out != "" {
		fh, err := os.Create(f.out)
		if err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(samples)
}

// loadInit reads initial values. A JSON list gives one state per chain; any
// other file is a single state shared by every chain.
func loadInit(path string) ([]ndarray.ChainState, error) {
	if path == "" {
		return nil, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if trimmed := strings.TrimSpace(string(b)); strings.HasPrefix(trimmed, "[") {
			var states []ndarray.ChainState
			if err := json.Unmarshal(b, &states); err != nil {
				return nil, err
			}
			return states, nil
		}
	}
	raw, err := ndarray.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st, err := ndarray.ChainStateFromAny(raw)
	if err != nil {
		return nil, err
	}
	return []ndarray.ChainState{st}, nil
}

func (a *app) modulesCmd() *cobra.Command {
	var available bool
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List loaded modules, or module files on disk with --available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if available {
				return a.listAvailable(a.out)
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			for _, m := range reg.ListModules() {
				fmt.Fprintln(a.out, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "Scan the modules directory instead of the engine")
	return cmd
}

func (a *app) listAvailable(w io.Writer) error {
	dir := a.cfg.ModulesDir
	if dir == "" {
		dir = registry.DiscoverModulesDir()
	}
	if dir == "" {
		return fmt.Errorf("no modules directory found; set --modules-dir")
	}
	mods, err := registry.ScanModules(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range mods {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.Path)
	}
	return tw.Flush()
}

func (a *app) factoriesCmd() *cobra.Command {
	var activate, deactivate string
	cmd := &cobra.Command{
		Use:   "factories [sampler|monitor|rng]",
		Short: "List factories, optionally toggling one first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := []engine.FactoryType{engine.SamplerFactory, engine.MonitorFactory, engine.RNGFactory}
			if len(args) == 1 {
				t, err := engine.ParseFactoryType(args[0])
				if err != nil {
					return err
				}
				types = []engine.FactoryType{t}
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			if activate != "" || deactivate != "" {
				if len(types) != 1 {
					return fmt.Errorf("a factory type is required with --activate or --deactivate")
				}
				name, on := activate, true
				if deactivate != "" {
					name, on = deactivate, false
				}
				if err := reg.SetFactoryActive(name, types[0], on); err != nil {
					return err
				}
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tACTIVE")
			for _, t := range types {
				for _, fac := range reg.ListFactories(t) {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", fac.Name, fac.Type, fac.Active)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&activate, "activate", "", "Factory to activate")
	cmd.Flags().StringVar(&deactivate, "deactivate", "", "Factory to deactivate")
	cmd.MarkFlagsMutuallyExclusive("activate", "deactivate")
	return cmd
}

func (a *app) rngsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rngs <factory> <chains>",
		Short: "Issue independent RNG states as JSON initial values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid number of chains: %q", args[1])
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			states, err := reg.ParallelRNGs(args[0], n)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(states)
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "jags support built: %t\n", jags.Built)
			if jags.BuildVersion != "" {
				fmt.Fprintf(a.out, "jags build version: %s\n", jags.BuildVersion)
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "engine version: %s\n", reg.Version())
			return nil
		},
	}
}
