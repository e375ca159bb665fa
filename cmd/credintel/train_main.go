package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/credtech/credintel/internal/config"
	"github.com/credtech/credintel/internal/train"
)

func newTrainCmd() *cobra.Command {
	var datasetPath, artifactsDir string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the bucket classifier from a historical ratings dataset",
		Long: `Fits the rating-bucket forest on a CSV of historical company ratios
and agency ratings, builds the bucket-to-rating distribution table, and
writes all model artifacts for the assessment pipeline to load.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if artifactsDir == "" {
				artifactsDir = cfg.Artifacts.Dir
			}

			examples, err := train.LoadDataset(datasetPath)
			if err != nil {
				return err
			}
			logger.Info().Int("examples", len(examples)).Str("dataset", datasetPath).Msg("dataset loaded")

			trainer := train.NewTrainer(cfg.Training, logger)
			report, err := trainer.Run(examples, artifactsDir)
			if err != nil {
				return err
			}

			fmt.Printf("Trained on %d examples, evaluated on %d\n", report.TrainSize, report.TestSize)
			fmt.Printf("Hold-out bucket accuracy: %.3f\n", report.Accuracy)
			for bucket, n := range report.BucketCounts {
				fmt.Printf("  %-6s %d\n", bucket, n)
			}
			fmt.Println("Top features:")
			for _, imp := range report.TopImportances {
				fmt.Printf("  %-28s %.4f\n", imp.Name, imp.Importance)
			}
			fmt.Printf("Artifacts written to %s\n", artifactsDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "data/corporate_ratings.csv", "Historical ratings CSV")
	cmd.Flags().StringVar(&artifactsDir, "artifacts", "", "Artifact output directory (default from config)")
	return cmd
}
