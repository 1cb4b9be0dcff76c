package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shrinkray/internal/codec"
	"shrinkray/internal/config"
	"shrinkray/internal/logging"
	"shrinkray/internal/processor"
	"shrinkray/internal/tui"
)

var convertCfg = config.Default()

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <dir>",
	Short: "Convert every image under a directory to WebP and AVIF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := convertCfg
		cfg.SourceRoot = args[0]
		settings, err := cfg.Settings()
		if err != nil {
			return err
		}

		interactive := !cfg.Plain && isatty.IsTerminal(os.Stdout.Fd())
		logger, closeLog, err := logging.New(logging.Options{
			Level: cfg.LogLevel,
			File:  cfg.LogFile,
			Quiet: interactive,
		})
		if err != nil {
			return err
		}
		defer closeLog()

		cd, release := openCodec(cfg)
		defer release()
		warnUnsupported(cmd.ErrOrStderr(), logger, cd, settings.Formats)

		ctl := processor.NewController(cd,
			processor.WithStrategy(cfg.Strategy()),
			processor.WithWorkers(cfg.Workers),
			processor.WithLogger(logger),
		)
		if err := ctl.Start(settings); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		go func() {
			<-ctx.Done()
			ctl.Stop()
		}()

		if interactive {
			program := tea.NewProgram(tui.NewModel(ctl.Events(), ctl.Stop))
			if _, err := program.Run(); err != nil {
				ctl.Stop()
				logger.Error("ui exited", "err", err)
			}
		} else {
			out := cmd.OutOrStdout()
			_, _ = processor.Follow(context.Background(), ctl.Events(), processor.DefaultPollInterval, func(e processor.Event) {
				printEvent(out, e)
			})
		}
		ctl.Wait()

		snap := ctl.State()
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(tui.SessionRows(snap, settings)))
		if snap.State == processor.StateFailed {
			return snap.Err
		}
		return nil
	},
}

// warnUnsupported reports formats the backend cannot encode. Conversion still
// runs; each affected file logs a per-format failure.
func warnUnsupported(w io.Writer, logger *log.Logger, cd codec.Codec, formats []codec.Format) {
	prober, ok := cd.(codec.Prober)
	if !ok {
		return
	}
	for _, f := range formats {
		if err := prober.Supports(f); err != nil {
			logger.Warn("encoder unavailable", "format", f, "backend", cd.Name(), "err", err)
			fmt.Fprintln(w, tui.WarnStyle.Render(fmt.Sprintf("warning: %v; %s files will be skipped", err, f.Label())))
		}
	}
}

func printEvent(w io.Writer, e processor.Event) {
	if e.Text == "" {
		return
	}
	line := e.Time.Format(time.TimeOnly) + "  " + e.Text
	if e.Kind == processor.EventError {
		line = tui.ErrorStyle.Render(line)
	}
	fmt.Fprintln(w, line)
}

func init() {
	f := convertCmd.Flags()
	f.BoolVar(&convertCfg.WebP, "webp", convertCfg.WebP, "write WebP copies")
	f.BoolVar(&convertCfg.AVIF, "avif", convertCfg.AVIF, "write AVIF copies")
	f.StringVar(&convertCfg.WebPDir, "webp-dir", "", "WebP output root (default <dir>/webp)")
	f.StringVar(&convertCfg.AVIFDir, "avif-dir", "", "AVIF output root (default <dir>/avif)")
	f.IntVarP(&convertCfg.MaxWidth, "max-width", "W", 0, "maximum output width in pixels (0 = unbounded)")
	f.IntVarP(&convertCfg.MaxHeight, "max-height", "H", 0, "maximum output height in pixels (0 = unbounded)")
	f.IntVar(&convertCfg.WebPQuality, "webp-quality", convertCfg.WebPQuality, "WebP quality 1-100")
	f.IntVar(&convertCfg.AVIFQuality, "avif-quality", convertCfg.AVIFQuality, "AVIF quality 1-100")
	f.IntVarP(&convertCfg.Workers, "workers", "j", convertCfg.Workers, "parallel workers (env SHRINKRAY_WORKERS)")
	f.BoolVar(&convertCfg.Sequential, "sequential", false, "convert one image at a time")
	f.StringVar((*string)(&convertCfg.Backend), "backend", string(convertCfg.Backend), "codec backend: native or vips (env SHRINKRAY_BACKEND)")
	f.BoolVar(&convertCfg.Plain, "plain", false, "print log lines instead of the interactive view")
	f.StringVar(&convertCfg.LogLevel, "log-level", convertCfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&convertCfg.LogFile, "log-file", "", "append the diagnostic log to this file")

	rootCmd.AddCommand(convertCmd)
}
