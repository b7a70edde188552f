package cmd

import (
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/pixfx/internal/pipeline"
	"github.com/MeKo-Tech/pixfx/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch <operation> <output-dir> <input>...",
	Short: "Apply an operation to many images in parallel",
	Long: `Apply one operation to every input image using a pool of workers.

Each input is written to <output-dir>/<name>.<format>. Existing outputs are
skipped unless --force is set. Randomized operations use the same seed for
every file.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	defaults := pipeline.DefaultParams()
	batchCmd.Flags().IntP("iterations", "n", defaults.Iterations, "Number of convolution passes")
	batchCmd.Flags().Int("samples", defaults.Samples, "Kernel taps drawn per pixel by the sampled blurs")
	batchCmd.Flags().Int("power", defaults.Power, "Corruption passes for glitch")
	batchCmd.Flags().Int64("seed", -1, "Seed for randomized operations (-1 draws one from the clock)")
	batchCmd.Flags().Int("max-size", 0, "Downscale inputs so neither side exceeds this (0 keeps the size)")
	batchCmd.Flags().String("format", "png", "Output format: png, jpg, gif, bmp or tiff")
	batchCmd.Flags().Bool("force", false, "Overwrite outputs that already exist")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some files fail")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.iterations", "iterations"},
		{"batch.samples", "samples"},
		{"batch.power", "power"},
		{"batch.seed", "seed"},
		{"batch.max_size", "max-size"},
		{"batch.format", "format"},
		{"batch.force", "force"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	op, err := pipeline.ParseOperation(args[0])
	if err != nil {
		return err
	}
	outDir := args[1]
	inputs := args[2:]

	encode, err := encodeOptions()
	if err != nil {
		return err
	}

	params := pipeline.Params{
		Iterations: viper.GetInt("batch.iterations"),
		Samples:    viper.GetInt("batch.samples"),
		Power:      viper.GetInt("batch.power"),
	}
	if op.Randomized() {
		params.Seed = resolveSeed(viper.GetInt64("batch.seed"))
	}

	workers := viper.GetInt("workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	// Files already run in parallel; keep each convolution single-threaded.
	params.Workers = 1

	aw, err := openArchive()
	if err != nil {
		return err
	}

	job := &pipeline.FileJob{
		Processor: pipeline.NewProcessor(logger),
		Archive:   aw,
		Op:        op,
		Encode:    encode,
		Params:    params,
		MaxSize:   viper.GetInt("batch.max_size"),
		Force:     viper.GetBool("batch.force"),
	}

	tasks := pipeline.BatchTasks(inputs, outDir, viper.GetString("batch.format"))

	logger.Info("Starting batch",
		"op", op,
		"files", len(tasks),
		"workers", workers,
		"output_dir", outDir,
		"seed", params.Seed,
	)

	ctx, cancel := signalContext()
	defer cancel()

	progress := worker.NewProgress(len(tasks), viper.GetBool("batch.progress"))
	pool := worker.New(worker.Config{
		Workers:    workers,
		Job:        job,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	if aw != nil {
		if err := aw.Close(); err != nil {
			return err
		}
	}

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Processing failed", "input", r.Task.Input, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if viper.GetBool("batch.allow_failures") {
			logger.Warn("Some files failed, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d of %d files failed", failedCount, len(tasks))
	}

	return nil
}
