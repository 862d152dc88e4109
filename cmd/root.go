package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"storefront.GO/config"
	"storefront.GO/service/commerce"
)

var (
	flagBackend string
	flagSession string
	flagYes     bool
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront client and reference commerce backend",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "commerce backend base URL (default BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session token (default SESSION_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "answer yes to every confirmation")
}

// Execute adds the registered commands and runs the root command.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds the backend client from config and the global flags.
func newClient() *commerce.Client {
	cfg := *config.App()
	if flagBackend != "" {
		cfg.BackendURL = flagBackend
	}
	if flagSession != "" {
		cfg.SessionToken = flagSession
	}
	config.InitRedis()
	if config.RedisClient != nil {
		config.PingRedis()
	}
	return commerce.NewFromConfig(&cfg)
}

func requestTimeout() time.Duration {
	return config.App().RequestTimeout
}
