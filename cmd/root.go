package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shrinkray/internal/codec"
	"shrinkray/internal/codec/libvips"
	"shrinkray/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "shrinkray",
	Short:        "shrinkray - batch convert image trees to WebP and AVIF",
	Long:         "shrinkray walks a directory tree and writes resized WebP and AVIF copies of every image into mirrored output trees.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

// openCodec returns the backend selected by cfg and a func releasing it.
func openCodec(cfg *config.Config) (codec.Codec, func()) {
	if cfg.Backend == config.BackendVips {
		c := libvips.New(cfg.Workers)
		return c, c.Close
	}
	return codec.NewNative(), func() {}
}
