package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-hooks/internal/config"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "go-hooks",
		Short: "go-hooks - post-response actions for proxied HTTP traffic",
		Long: `go-hooks sits in front of an upstream API and runs post-response actions
against every exchange. Actions extract values from the request or response,
check conditions and assign or store variables that later actions and
requests can reference.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// A .env file in the working directory is optional
	_ = godotenv.Load()

	// GOHOOKS_PROXY_UPSTREAM and friends
	viper.SetEnvPrefix("GOHOOKS")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default with viper so that environment
// variables can override keys missing from the config file
func setDefaults() {
	def := config.Default()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	viper.SetDefault("server.port", def.Server.Port)
	viper.SetDefault("server.host", def.Server.Host)
	viper.SetDefault("server.readTimeout", def.Server.ReadTimeout)
	viper.SetDefault("server.writeTimeout", def.Server.WriteTimeout)

	viper.SetDefault("proxy.upstream", def.Proxy.Upstream)
	viper.SetDefault("proxy.maxBodyBytes", def.Proxy.MaxBodyBytes)
	viper.SetDefault("proxy.timeout", def.Proxy.Timeout)

	viper.SetDefault("storage.type", def.Storage.Type)
	viper.SetDefault("storage.path", filepath.Join(cwd, "data"))
	viper.SetDefault("storage.redis.addr", def.Storage.Redis.Addr)
	viper.SetDefault("storage.redis.password", def.Storage.Redis.Password)
	viper.SetDefault("storage.redis.db", def.Storage.Redis.DB)
	viper.SetDefault("storage.redis.keyPrefix", def.Storage.Redis.KeyPrefix)

	viper.SetDefault("tracing.maxTraces", def.Tracing.MaxTraces)
	viper.SetDefault("tracing.captureBodies", def.Tracing.CaptureBodies)

	viper.SetDefault("telemetry.enabled", def.Telemetry.Enabled)
	viper.SetDefault("telemetry.serviceName", def.Telemetry.ServiceName)

	viper.SetDefault("logging.level", def.Logging.Level)
	viper.SetDefault("logging.format", def.Logging.Format)
}

// loadConfig decodes the merged viper settings and validates them
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		if cwd, err := os.Getwd(); err == nil {
			cfg.Storage.Path = filepath.Join(cwd, cfg.Storage.Path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
