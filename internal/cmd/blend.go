package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/pixfx/internal/blend"
	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var blendCmd = &cobra.Command{
	Use:   "blend <background> <foreground> <output>",
	Short: "Alpha-blend two images of the same size",
	Long: `Blend foreground over background with a constant --alpha, or with a
per-pixel alpha read from the red channel of a --mask image.`,
	Args: cobra.ExactArgs(3),
	RunE: runBlend,
}

type blendParams struct {
	Alpha float64 `json:"alpha,omitempty"`
	Mask  string  `json:"mask,omitempty"`
}

func init() {
	rootCmd.AddCommand(blendCmd)

	blendCmd.Flags().Float64P("alpha", "a", 0.5, "Foreground weight in [0,1]")
	blendCmd.Flags().String("mask", "", "Grayscale mask image; overrides --alpha")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"blend.alpha", "alpha"},
		{"blend.mask", "mask"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, blendCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBlend(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	encode, err := encodeOptions()
	if err != nil {
		return err
	}

	bg, err := imageio.Load(args[0])
	if err != nil {
		return err
	}
	fg, err := imageio.Load(args[1])
	if err != nil {
		return err
	}

	p := blendParams{Mask: viper.GetString("blend.mask")}
	var out *pixel.Buffer
	if p.Mask != "" {
		mask, err := imageio.Load(p.Mask)
		if err != nil {
			return err
		}
		logger.Info("Blending with mask", "background", args[0], "foreground", args[1], "mask", p.Mask)
		out, err = blend.BlendMasked(bg, fg, mask)
		if err != nil {
			return err
		}
	} else {
		p.Alpha = viper.GetFloat64("blend.alpha")
		logger.Info("Blending", "background", args[0], "foreground", args[1], "alpha", p.Alpha)
		out, err = blend.Blend(bg, fg, p.Alpha)
		if err != nil {
			return err
		}
	}

	if err := imageio.Save(args[2], out, encode); err != nil {
		return err
	}

	aw, err := openArchive()
	if err != nil {
		return err
	}
	if aw != nil {
		if err := aw.WriteImage("blend/"+fileStem(args[2]), "blend", p, out); err != nil {
			aw.Close()
			return fmt.Errorf("failed to archive blend: %w", err)
		}
		if err := aw.Close(); err != nil {
			return err
		}
	}

	logger.Info("Wrote image", "path", args[2])
	return nil
}
