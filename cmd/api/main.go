package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

// @title Remittance API
// @version 1.0
// @description Remittance intake, claim extraction and review.
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:           "remitapi",
		Short:         "Remittance intake, claim extraction and review API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reprocessCmd())
	rootCmd.AddCommand(templatesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			a.logger.Info("migrations applied", zap.String("event", "migration.done"))
			return nil
		},
	}
}
