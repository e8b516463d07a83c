// Package cli wires the mapprof commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/VladMinzatu/mapprof/internal/config"
	"github.com/VladMinzatu/mapprof/internal/logging"
)

// flagKeys maps command-line flags onto config keys. Bindings are made for
// the command being executed, so commands may share flag names.
var flagKeys = map[string]string{
	"log-level":          "log.level",
	"log-format":         "log.format",
	"ceiling":            "ceiling_bytes",
	"template-threshold": "template.threshold",
	"top":                "top.objects",
}

type globalOptions struct {
	configPath string
	noColor    bool

	v   *viper.Viper
	cfg *config.Config
}

// load resolves the configuration for cmd and installs the logger.
func (g *globalOptions) load(cmd *cobra.Command) error {
	bindFlags(g.v, cmd.Flags())
	cfg, err := config.Load(g.v, g.configPath)
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	g.cfg = cfg
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func NewRootCmd() *cobra.Command {
	g := &globalOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "mapprof",
		Short: "mapprof - binary size analysis from MSVC linker map files",
		Long: `Analyze MSVC linker map files and explain where binary size goes.

mapprof reconstructs symbol sizes from the "Publics by Value" listing,
classifies every symbol, ranks categories and object files, and points at
duplicated template instantiations, identical-code-folding candidates and
container overhead per object file.

Results can be exported as CSV, JSON, pprof, folded stacks or OTLP profiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default: ./mapprof.yaml or ~/.config/mapprof/mapprof.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newAnalyzeCmd(g))
	cmd.AddCommand(newCompareCmd(g))
	cmd.AddCommand(newLookupCmd(g))
	cmd.AddCommand(newWatchCmd(g))
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
