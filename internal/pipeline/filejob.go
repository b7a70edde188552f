package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/pixfx/internal/archive"
	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/worker"
)

// FileJob loads a file, runs one operation and writes the result. It
// implements worker.Job.
type FileJob struct {
	Processor *Processor
	Archive   *archive.Writer // optional
	Op        Operation
	Encode    imageio.Options
	Params    Params
	MaxSize   int  // downscale inputs larger than this; 0 keeps the size
	Force     bool // overwrite existing outputs
}

// Process handles a single task and returns the written output path.
func (j *FileJob) Process(ctx context.Context, task worker.Task) (string, error) {
	if !j.Force {
		if _, err := os.Stat(task.Output); err == nil {
			j.Processor.log().Info("Output already exists; skipping", "input", task.Input, "path", task.Output)
			return task.Output, nil
		}
	}

	src, err := imageio.Load(task.Input)
	if err != nil {
		return "", err
	}
	if j.MaxSize > 0 {
		src, err = imageio.Resize(src, j.MaxSize)
		if err != nil {
			return "", fmt.Errorf("failed to resize %s: %w", task.Input, err)
		}
	}

	out, err := j.Processor.Run(ctx, j.Op, src, j.Params)
	if err != nil {
		return "", fmt.Errorf("failed to process %s: %w", task.Input, err)
	}

	if err := imageio.Save(task.Output, out, j.Encode); err != nil {
		return "", err
	}

	if j.Archive != nil {
		name := RenderName(j.Op, task.Output)
		if err := j.Archive.WriteImage(name, string(j.Op), j.Params, out); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}

	return task.Output, nil
}

// RenderName builds the archive key for an operation that produced the
// given output file. Batch outputs are unique, so their keys are too.
func RenderName(op Operation, output string) string {
	base := filepath.Base(output)
	return string(op) + "/" + strings.TrimSuffix(base, filepath.Ext(base))
}

// BatchTasks maps every input to outDir/<name>.<ext>, where ext defaults to png.
// Inputs that share a file name get -1, -2, ... suffixes in input order so no
// two tasks write the same output.
func BatchTasks(inputs []string, outDir, ext string) []worker.Task {
	if ext == "" {
		ext = "png"
	}
	used := make(map[string]bool, len(inputs))
	tasks := make([]worker.Task, 0, len(inputs))
	for _, in := range inputs {
		base := filepath.Base(in)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		name := stem
		for n := 1; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", stem, n)
		}
		used[strings.ToLower(name)] = true
		tasks = append(tasks, worker.Task{Input: in, Output: filepath.Join(outDir, name+"."+ext)})
	}
	return tasks
}
