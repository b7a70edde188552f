package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"text/tabwriter"

	"github.com/MeKo-Tech/pixfx/internal/archive"
	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and manage render archives",
}

var archiveListCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the renders stored in an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveList,
}

var archiveExtractCmd = &cobra.Command{
	Use:   "extract <archive> <name> <output>",
	Short: "Write a stored render to an image file",
	Args:  cobra.ExactArgs(3),
	RunE:  runArchiveExtract,
}

var archiveImportCmd = &cobra.Command{
	Use:   "import <archive> <dir>",
	Short: "Store every image found under a directory in an archive",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveImport,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveExtractCmd, archiveImportCmd)

	archiveImportCmd.Flags().String("name", "pixfx renders", "Archive name")
	archiveImportCmd.Flags().String("description", "Imported images", "Archive description")
	archiveImportCmd.Flags().Bool("progress", true, "Show progress bar")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"archive_import.name", "name"},
		{"archive_import.description", "description"},
		{"archive_import.progress", "progress"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, archiveImportCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	r, err := archive.OpenReader(args[0])
	if err != nil {
		return err
	}
	defer r.Close() // nolint:errcheck

	meta, err := r.Metadata()
	if err != nil {
		return err
	}
	records, err := r.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %d renders\n", meta.Name, meta.Generator, len(records))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOPERATION\tSIZE\tPARAMS\tCREATED")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\n",
			rec.Name, rec.Operation, rec.Width, rec.Height, rec.Params, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func runArchiveExtract(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	encode, err := encodeOptions()
	if err != nil {
		return err
	}

	r, err := archive.OpenReader(args[0])
	if err != nil {
		return err
	}
	defer r.Close() // nolint:errcheck

	buf, rec, err := r.ReadImage(args[1])
	if err != nil {
		return err
	}

	if err := imageio.Save(args[2], buf, encode); err != nil {
		return err
	}

	logger.Info("Extracted render", "name", rec.Name, "operation", rec.Operation, "params", string(rec.Params), "path", args[2])
	return nil
}

// importPattern matches the image extensions imageio can decode.
var importPattern = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|bmp|tiff?|webp)$`)

func runArchiveImport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	archivePath, dir := args[0], args[1]
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", dir)
	}

	files, err := scanImages(dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	encode, err := encodeOptions()
	if err != nil {
		return err
	}

	w, err := archive.New(archivePath, archive.Metadata{
		Name:        viper.GetString("archive_import.name"),
		Description: viper.GetString("archive_import.description"),
		Generator:   "pixfx " + version,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	w.SetCompression(encode.PNGCompression)

	logger.Info("Importing images", "dir", dir, "archive", archivePath, "count", len(files))

	progress := worker.NewProgress(len(files), viper.GetBool("archive_import.progress"))
	progress.SetUnit("images")

	imported, failed := 0, 0
	for i, path := range files {
		if err := importImage(w, dir, path); err != nil {
			logger.Error("Failed to import image", "path", path, "error", err)
			failed++
		} else {
			imported++
		}
		progress.Update(i+1, len(files), failed)
	}
	progress.Done()

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	logger.Info(progress.Summary())
	logger.Info("Import complete", "archive", archivePath, "images", imported)
	return nil
}

// importImage stores path under its slash-separated path relative to dir.
func importImage(w *archive.Writer, dir, path string) error {
	buf, err := imageio.Load(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return err
	}
	return w.WriteImage(filepath.ToSlash(rel), "import", map[string]string{"source": path}, buf)
}

// scanImages returns every decodable image under dir in lexical order.
func scanImages(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if importPattern.MatchString(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
