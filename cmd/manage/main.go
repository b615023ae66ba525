package main

import (
	"fmt"
	"os"

	"imagematch/infra/database"
	"imagematch/pkg/config"
	"imagematch/pkg/logger"

	"github.com/spf13/cobra"
)

// manage bundles the one-off jobs run against the image store.
type manage struct {
	config *config.AppConfig
	flush  func()
}

func newRootCmd() *cobra.Command {
	m := &manage{}

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Image store management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(".env")
			if err != nil {
				return err
			}
			flush, err := logger.Install(appConfig.LogLevel, appConfig.LogFormat)
			if err != nil {
				return err
			}
			m.config = appConfig
			m.flush = flush
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if m.flush != nil {
				m.flush()
			}
		},
	}

	root.AddCommand(
		m.migrateCmd(),
		m.importUncategorizedCmd(),
		m.generateTrainingFileCmd(),
	)

	return root
}

func (m *manage) openStore() (*database.Repository, error) {
	repository, err := database.Open(m.config)
	if err != nil {
		return nil, fmt.Errorf("open image store: %w", err)
	}
	return repository, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
