package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/panyam/queuesim/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "qsim",
	Short: "qsim simulates a single-server router with a finite buffer",
	Long: `qsim runs discrete-event simulations of an M/M/1/K router: Poisson
arrivals, exponential service, one server and room for K packets in total.
Simulated drop probability, utilization and queueing delay are compared
against the closed-form steady state.

Every flag can also be set in a config file (--config, or qsim.yaml in the
working or home directory) or through QSIM_* environment variables, e.g.
QSIM_ARRIVAL_RATE=5.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		if lvl := viper.GetString("log_level"); lvl != "" {
			level, err := runtime.ParseLogLevel(lvl)
			if err != nil {
				return err
			}
			runtime.SetLogLevel(level)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default qsim.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN, ERROR or OFF (default QSIM_LOG_LEVEL or INFO)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	viper.SetDefault("arrival_rate", 5.0)
	viper.SetDefault("process_rate", 6.0)
	viper.SetDefault("capacity", 10)
	viper.SetDefault("horizon", 2000.0)
	viper.SetDefault("max_arrivals", 10000)
	viper.SetDefault("address", ":8080")
	viper.SetDefault("max_arrivals_cap", 1_000_000)
	viper.SetDefault("stored_runs", 64)
}

// initConfig wires viper for the command being executed. Flags are bound
// here rather than in init so that commands sharing a key (e.g. capacity)
// each bind their own flag.
func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("QSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	var bindErr error
	bind := func(f *pflag.Flag) {
		if err := viper.BindPFlag(flagKey(f.Name), f); err != nil && bindErr == nil {
			bindErr = err
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	if bindErr != nil {
		return bindErr
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("qsim")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		runtime.Default().Debug("using config file %s", viper.ConfigFileUsed())
	}
	return nil
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
