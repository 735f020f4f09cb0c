package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/legalmind/internal/app"
	"github.com/markdave123-py/legalmind/internal/config"
	"github.com/markdave123-py/legalmind/internal/seed"
)

func main() {
	var (
		force        bool
		only         string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the curated laws and build their search indexes",
		Long: "Creates or refreshes every law in the manifest and ingests it. " +
			"Laws that are already ready are skipped unless --force is given.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manifest, err := seed.LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			cfg := config.LoadConfig()
			application, err := app.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Seeder.Seed(ctx, manifest, force, only)
			if report != nil {
				log.Printf("seed: %d seeded, %d skipped, %d failed", len(report.Seeded), len(report.Skipped), len(report.Failed))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-seed laws that are already ready")
	cmd.Flags().StringVar(&only, "law", "", "seed only the law with this slug")
	cmd.Flags().StringVar(&manifestPath, "manifest", "configs/laws.yaml", "path to the law manifest")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
