// Package cmd implements the command-line interface for the detik news crawler.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jansonh/detiknews-crawler/cmd/articles"
	"github.com/jansonh/detiknews-crawler/cmd/crawl"
	"github.com/jansonh/detiknews-crawler/cmd/schedule"
	"github.com/jansonh/detiknews-crawler/cmd/serve"
	"github.com/jansonh/detiknews-crawler/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	rootCmd = &cobra.Command{
		Use:           "detiknews-crawler",
		Short:         "Crawl the detik news daily index",
		Long:          `Crawl the detik news daily index backwards from today and store the full text of every article.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "detiknews-crawler version %s\n", Version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(articles.Command())
}

// initConfig reads the config file and environment into the global viper.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := config.SetDefaults(viper.GetViper()); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional unless named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	return bindEnvVars()
}

// envBindings maps configuration keys to the environment variables that set them.
var envBindings = []struct {
	key  string
	envs []string
}{
	{"app.environment", []string{"APP_ENV"}},
	{"app.debug", []string{"APP_DEBUG"}},
	{"logger.level", []string{"LOG_LEVEL"}},
	{"logger.encoding", []string{"LOG_FORMAT"}},
	{"elasticsearch.addresses", []string{"ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"}},
	{"elasticsearch.username", []string{"ELASTIC_USERNAME", "ELASTICSEARCH_USERNAME"}},
	{"elasticsearch.password", []string{"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"}},
	{"elasticsearch.api_key", []string{"ELASTICSEARCH_API_KEY"}},
	{"elasticsearch.index_name", []string{"ELASTICSEARCH_INDEX_NAME"}},
	{"elasticsearch.insecure_skip_verify", []string{"ELASTICSEARCH_SKIP_TLS"}},
	{"database.host", []string{"POSTGRES_HOST"}},
	{"database.port", []string{"POSTGRES_PORT"}},
	{"database.user", []string{"POSTGRES_USER"}},
	{"database.password", []string{"POSTGRES_PASSWORD"}},
	{"database.dbname", []string{"POSTGRES_DB"}},
	{"database.sslmode", []string{"POSTGRES_SSLMODE"}},
}

func bindEnvVars() error {
	for _, b := range envBindings {
		args := append([]string{b.key}, b.envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", strings.Join(b.envs, "/"), err)
		}
	}
	return nil
}
