package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MeKo-Tech/pixfx/internal/archive"
	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/pipeline"
	"github.com/MeKo-Tech/pixfx/internal/worker"
	"github.com/spf13/viper"
)

// version is stamped into archive metadata.
var version = "dev"

// resolveSeed returns seed unchanged unless it is negative, in which case a
// time-based seed is drawn and logged so the run can be repeated.
func resolveSeed(seed int64) int64 {
	if seed >= 0 {
		return seed
	}
	seed = time.Now().UnixNano() & (1<<62 - 1)
	logger.Info("Using time-based seed", "seed", seed)
	return seed
}

func encodeOptions() (imageio.Options, error) {
	level, err := imageio.ParseCompression(viper.GetString("png_compression"))
	if err != nil {
		return imageio.Options{}, err
	}
	return imageio.Options{PNGCompression: level}, nil
}

// openArchive returns nil when --archive is not set.
func openArchive() (*archive.Writer, error) {
	path := viper.GetString("archive")
	if path == "" {
		return nil, nil
	}

	w, err := archive.New(path, archive.Metadata{
		Name:        "pixfx renders",
		Description: "Rendered images with the parameters that produced them",
		Generator:   "pixfx " + version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	opts, err := encodeOptions()
	if err != nil {
		w.Close()
		return nil, err
	}
	w.SetCompression(opts.PNGCompression)

	logger.Info("Archiving renders", "path", path)
	return w, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// runFile applies op to a single file through the same job the batch command uses.
func runFile(op pipeline.Operation, params pipeline.Params, in, out string, maxSize int) error {
	encode, err := encodeOptions()
	if err != nil {
		return err
	}

	aw, err := openArchive()
	if err != nil {
		return err
	}

	params.Workers = viper.GetInt("workers")
	job := &pipeline.FileJob{
		Processor: pipeline.NewProcessor(logger),
		Archive:   aw,
		Op:        op,
		Encode:    encode,
		Params:    params,
		MaxSize:   maxSize,
		Force:     true,
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Processing image", "op", op, "input", in, "output", out)
	path, err := job.Process(ctx, worker.Task{Input: in, Output: out})
	if aw != nil {
		if cerr := aw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	logger.Info("Wrote image", "path", path)
	return nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
