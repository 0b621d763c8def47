package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cli-senpei/Lerni-sub000/internal/config"
)

// rootOptions is shared by every subcommand. cfg is populated in the
// root command's PersistentPreRunE.
type rootOptions struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"db":        "storage.path",
	"backend":   "storage.backend",
	"learner":   "learner.id",
	"variant":   "estimator.variant",
	"log-level": "log.level",
}

// NewRootCmd builds the lerni command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "lerni",
		Short: "Adaptive difficulty engine for reading games",
		Long: "Lerni recommends the next question's difficulty and focus area for\n" +
			"reading and phonics games from each learner's answers.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to config file (default ./lerni.yaml or $XDG_CONFIG_HOME/lerni/lerni.yaml)")
	flags.String("db", "", "Path to database file (overrides LERNI_DB env var)")
	flags.String("backend", "", "Storage backend: sqlite, bolt or memory")
	flags.String("learner", "", "Learner ID (default: this device's ID)")
	flags.String("variant", "", "Estimator variant: rules or online")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	if err := bindFlags(opts.v, flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newRecordCmd(opts))
	rootCmd.AddCommand(newRecommendCmd(opts))
	rootCmd.AddCommand(newResetCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// load reads configuration and installs the default logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.v, o.configFile)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)

	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.logger)
	o.cfg = cfg
	return nil
}
