// Command ragdoll is a thin CLI over the ragdoll client façade, exposing
// ingest and search only — no chat/completion command, per the module's
// Non-goal on answer synthesis.
//
// Grounded on the teacher's cli/main.go command shape (a root command with
// global flags plus a rag subcommand with pipeline flags), rewritten
// against github.com/spf13/cobra + github.com/spf13/viper instead of the
// teacher's bespoke krait framework.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "RAGDOLL"

var (
	cfgFile         string
	cacheDir        string
	defaultProvider string
	verbose         bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragdoll",
		Short: "Document ingestion and retrieval-augmented search",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initViper()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.ragdoll.yaml)")
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "cache directory for persistence")
	root.PersistentFlags().StringVar(&defaultProvider, "provider", "openai/gpt-3.5-turbo", "default \"provider/model\" for embedding/summarization tasks")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newIngestCmd())
	root.AddCommand(newSearchCmd())

	return root
}

func initViper() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".ragdoll")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			return err
		}
	}
	return nil
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
