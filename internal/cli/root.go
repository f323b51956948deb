// Package cli implements the gojags command tree: one-shot model checks and
// sampling runs, engine registry inspection, and the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gojags/internal/config"
	"gojags/internal/registry"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgPath    string
	envFile    string
	engine     string
	modulesDir string
	modules    string
	logLevel   string

	cfg  config.Config
	log  zerolog.Logger
	out  io.Writer
	errw io.Writer
}

// Main runs the command line and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := buildRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func buildRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout, errw: stderr, log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "gojags",
		Short:         "Run JAGS models from the command line or over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before GOJAGS_* variables are read")
	pf.StringVar(&a.engine, "engine", "", "Engine: jags|sim (defaults GOJAGS_ENGINE, then jags when built)")
	pf.StringVar(&a.modulesDir, "modules-dir", "", "Directory holding engine modules (defaults GOJAGS_MODULES_DIR)")
	pf.StringVar(&a.modules, "modules", "", "Comma-separated modules to load (default basemod,bugs)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error|off (defaults GOJAGS_LOG_LEVEL or info)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	root.AddCommand(
		a.checkCmd(),
		a.sampleCmd(),
		a.modulesCmd(),
		a.factoriesCmd(),
		a.rngsCmd(),
		a.serveCmd(),
		a.versionCmd(),
		completionCmd(root),
	)
	return root
}

// setup resolves configuration: dotenv, then file and environment, then
// flags given on the command line.
func (a *app) setup(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := config.LoadDotEnv(a.envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Resolve(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = a.engine
	}
	if flags.Changed("modules-dir") {
		cfg.ModulesDir = a.modulesDir
	}
	if flags.Changed("modules") {
		cfg.Modules = splitCSV(a.modules)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(a.errw, cfg.LogLevel)
	return nil
}

// openRegistry opens the configured engine with its modules loaded.
func (a *app) openRegistry() (*registry.Registry, error) {
	mods := a.cfg.Modules
	if len(mods) == 0 {
		mods = registry.DefaultModules
	}
	r, err := registry.OpenWithModules(a.cfg.Engine, a.cfg.ModulesDir, mods, registry.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("engine", a.cfg.Engine).Strs("modules", mods).Str("version", r.Version()).Msg("engine opened")
	return r, nil
}

func completionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion script",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		// Completion must not depend on a resolvable config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(w)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return fmt.Errorf("unknown shell: %s", args[0])
		},
	}
}
