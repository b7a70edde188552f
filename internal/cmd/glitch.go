package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/pixfx/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var glitchCmd = &cobra.Command{
	Use:   "glitch <input> <output>",
	Short: "Corrupt an image with noise blocks, channel swaps and scanlines",
	Args:  cobra.ExactArgs(2),
	RunE:  runGlitch,
}

var heightmapCmd = &cobra.Command{
	Use:   "heightmap <input> <output>",
	Short: "Color a grayscale height image as water, hills and mountains",
	Args:  cobra.ExactArgs(2),
	RunE:  runHeightmap,
}

func init() {
	rootCmd.AddCommand(glitchCmd)
	rootCmd.AddCommand(heightmapCmd)

	glitchCmd.Flags().IntP("power", "p", pipeline.DefaultParams().Power, "Number of corruption passes")
	glitchCmd.Flags().Int64("seed", -1, "Seed (-1 draws one from the clock)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"glitch.power", "power"},
		{"glitch.seed", "seed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, glitchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGlitch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	params := pipeline.Params{
		Power: viper.GetInt("glitch.power"),
		Seed:  resolveSeed(viper.GetInt64("glitch.seed")),
	}
	return runFile(pipeline.OpGlitch, params, args[0], args[1], 0)
}

func runHeightmap(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}
	return runFile(pipeline.OpHeightmap, pipeline.Params{}, args[0], args[1], 0)
}
