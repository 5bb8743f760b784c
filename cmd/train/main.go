package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"model-training-step/internal/adapters/secondary/training"
	"model-training-step/internal/config"
	"model-training-step/internal/core/services"
)

type trainFlags struct {
	input             string
	inputCSVFile      string
	modelName         string
	sparsityThreshold float64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("training step failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags trainFlags

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model, upload its artifact and register it with the tracking run",
		Example: `  train --input ./data --input_csv_file sales.csv --model_name sample-model
  TRACKING_BACKEND=mlflow TRACKING_RUN_ID=abc123 train --input ./data --input_csv_file sales.csv --model_name sample-model`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTraining(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "", "Directory holding the training data")
	cmd.Flags().StringVar(&flags.inputCSVFile, "input_csv_file", "", "CSV file name inside the input directory")
	cmd.Flags().StringVar(&flags.modelName, "model_name", "", "Name to register the trained model under")
	cmd.Flags().Float64Var(&flags.sparsityThreshold, "sparsity_threshold", 0, "Sparsity threshold passed to the trainer")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("input_csv_file")
	_ = cmd.MarkFlagRequired("model_name")

	return cmd
}

func runTraining(cmd *cobra.Command, flags trainFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	ctx := cmd.Context()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	runSvc := services.NewRunService(b.runs, b.artifacts, b.registry,
		services.WithModelFramework(cfg.Registry.ModelFramework),
		services.WithModelDescription(cfg.Registry.ModelDescription),
	)
	run, err := runSvc.Acquire(ctx, cfg.Tracking.RunID, cfg.Tracking.Experiment)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run_id":   run.ID(),
		"tracking": cfg.Tracking.Backend,
		"registry": cfg.Registry.Backend,
	}).Info("run acquired")

	trainingSvc := services.NewTrainingService(training.NewPlaceholderTrainer(), cfg.Training.OutputDir)
	pipeline := services.NewPipelineService(trainingSvc, cmd.OutOrStdout())

	_, err = pipeline.Execute(ctx, run, services.PipelineParams{
		DataDir:           flags.input,
		InputCSVFile:      flags.inputCSVFile,
		ModelName:         flags.modelName,
		SparsityThreshold: flags.sparsityThreshold,
	})
	return err
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
