package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"shrinkray/internal/codec"
	"shrinkray/internal/config"
	"shrinkray/internal/tui"
	"shrinkray/pkg/imgutil"
)

var formatsCfg = config.Default()

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Report which output encoders the selected backend can use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch formatsCfg.Backend {
		case config.BackendNative, config.BackendVips:
		default:
			return fmt.Errorf("unknown backend %q (want native or vips)", formatsCfg.Backend)
		}

		cd, release := openCodec(formatsCfg)
		defer release()

		rows := []tui.SummaryRow{{Label: "Backend", Value: cd.Name()}}
		prober, _ := cd.(codec.Prober)
		for _, f := range codec.Formats {
			status := "available"
			if prober != nil {
				if err := prober.Supports(f); err != nil {
					status = err.Error()
				}
			}
			rows = append(rows, tui.SummaryRow{Label: f.Label(), Value: status})
		}
		rows = append(rows, tui.SummaryRow{Label: "Inputs", Value: strings.Join(inputExts(), " ")})

		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(rows))
		return nil
	},
}

func inputExts() []string {
	exts := imgutil.Extensions()
	sort.Strings(exts)
	return exts
}

func init() {
	formatsCmd.Flags().StringVar((*string)(&formatsCfg.Backend), "backend", string(formatsCfg.Backend), "codec backend: native or vips")
	rootCmd.AddCommand(formatsCmd)
}
