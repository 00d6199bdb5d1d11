// Package cmd provides the command-line interface for bgpscope.
// It handles command parsing, configuration loading and run orchestration.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/bgpscope/internal/config"
)

const defaultUserAgent = "bgpscope/1.0"

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bgpscope -c \"Company Name\" [-o prefix]",
	Short: "Enumerate the address ranges and domain names of an organization",
	Long: `bgpscope searches a BGP routing registry for an organization,
asks which of the matching entries are in scope, then walks their ASN
and net-block pages to collect CIDR ranges and DNS names.`,
	Args:          cobra.NoArgs,
	RunE:          runLookup,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./bgpscope.yml or $XDG_CONFIG_HOME/bgpscope/bgpscope.yml)")
	rootCmd.PersistentFlags().StringP("database", "d", defaults.DatabasePath, "Path to SQLite run history (empty disables history)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Lookup target
	rootCmd.Flags().StringP("company", "c", "", "Company to search registered addresses for (required)")
	rootCmd.Flags().StringP("output-prefix", "o", "", "Write results to <prefix>.ips.txt and <prefix>.domains.txt")
	rootCmd.Flags().String("base-url", defaults.BaseURL, "Origin of the routing registry service")

	// Page fetching
	rootCmd.Flags().String("browser", defaults.Browser, "Page fetcher: 'http' or 'chrome'")
	rootCmd.Flags().String("chrome-path", "", "Chrome executable (default: autodetect)")
	rootCmd.Flags().Bool("headless", defaults.Headless, "Run Chrome without a window")
	rootCmd.Flags().DurationP("delay", "r", defaults.RequestDelay, "Delay between page fetches")
	rootCmd.Flags().DurationP("timeout", "t", defaults.RequestTimeout, "Page fetch timeout")
	rootCmd.Flags().Duration("validation-timeout", defaults.ValidationTimeout, "Maximum wait for the service to validate the browser")
	rootCmd.Flags().Duration("poll-interval", defaults.PollInterval, "Interval between validation checks")
	rootCmd.Flags().StringP("user-agent", "u", defaultUserAgent, "HTTP User-Agent header")
	rootCmd.Flags().Bool("respect-robots", defaults.RespectRobots, "Honor the robots.txt Crawl-delay of the service")

	// Scope selection
	rootCmd.Flags().BoolP("yes", "y", false, "Accept every search result without prompting")

	// Outputs
	rootCmd.Flags().String("diagnostics-dir", defaults.DiagnosticsDir, "Directory for debug.html and debug.png on failure")
	rootCmd.Flags().String("report", "", "Write a Markdown run report to this path")

	// Logging
	rootCmd.Flags().String("log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.Flags().String("log-format", defaults.Log.Format, "Log format: json or text")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"company", "company"},
		{"output_prefix", "output-prefix"},
		{"base_url", "base-url"},
		{"browser", "browser"},
		{"chrome_path", "chrome-path"},
		{"headless", "headless"},
		{"request_delay", "delay"},
		{"request_timeout", "timeout"},
		{"validation_timeout", "validation-timeout"},
		{"poll_interval", "poll-interval"},
		{"user_agent", "user-agent"},
		{"respect_robots", "respect-robots"},
		{"assume_yes", "yes"},
		{"diagnostics_dir", "diagnostics-dir"},
		{"report_path", "report"},
		{"log.level", "log-level"},
		{"log.file", "log-file"},
		{"log.format", "log-format"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
	if err := viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("database")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind flag database: %v\n", err)
	}

	rootCmd.AddCommand(historyCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.ConfigDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName(config.AppName)
	}

	viper.SetEnvPrefix("BGPSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig(cmd *cobra.Command) (*config.CrawlConfig, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == defaultUserAgent {
		cfg.UserAgent = generateUserAgent()
	}
	return cfg, nil
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("bgpscope/%s", version)
	}
	return "bgpscope/dev"
}

func showCurrentConfig(w io.Writer, cfg *config.CrawlConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current bgpscope Configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./bgpscope.yml, %s/bgpscope.yml\n", config.ConfigDir())
	fmt.Fprintf(w, "# Environment variables prefix: BGPSCOPE_\n\n")

	fmt.Fprint(w, string(yamlData))

	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (BGPSCOPE_ prefix)\n")
	fmt.Fprintf(w, "# 3. Configuration file (bgpscope.yml)\n")
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")

	return nil
}
