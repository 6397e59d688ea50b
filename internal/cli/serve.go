package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/server"
	"github.com/mgpai22/whisperburn/internal/transcribe"
	"github.com/mgpai22/whisperburn/internal/translate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web UI",
	Long: `Start the WhisperBurn web UI on a local address (127.0.0.1:7860 by default)
and open it in the browser.

Examples:
  whisperburn serve
  whisperburn serve --bind 127.0.0.1:8080 --open=false`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("bind", "", "Address to listen on (default from config, 127.0.0.1:7860)")
	serveCmd.Flags().Bool("open", true, "Open the UI in the default browser")
	serveCmd.Flags().String("provider", "", "Transcription provider (whisperx, openai, gemini)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	svc, err := newService(ctx, cmd)
	if err != nil {
		return err
	}

	bind, _ := cmd.Flags().GetString("bind")
	if bind == "" {
		bind = cfg.Server.Bind
	}
	open, _ := cmd.Flags().GetBool("open")
	if !cmd.Flags().Changed("open") {
		open = cfg.Server.OpenBrowser
	}

	status := transcribe.DeviceStatus(transcribe.DetectGPU(ctx))
	logger.Infow("device", "status", status)

	srv := server.New(server.Options{
		Addr:          bind,
		Pipeline:      svc,
		DeviceStatus:  status,
		DefaultModel:  cfg.Transcription.Model,
		DefaultOffset: cfg.Transcription.SyncOffset,
		Verbose:       verbose,
		Logger:        logger,
		Translators: func(ctx context.Context, provider translate.Provider, target string) (translate.Translator, error) {
			opts := translate.Options{TargetLanguage: target}
			// the configured model only applies to the configured provider
			if provider == "" || string(provider) == cfg.Translation.Provider {
				provider = translate.Provider(cfg.Translation.Provider)
				opts.Model = cfg.Translation.Model
			}
			return newTranslator(ctx, provider, opts)
		},
	})
	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Printf("WhisperBurn running at %s (Ctrl+C to stop)\n", srv.URL())
	if open {
		if err := openBrowser(ctx, srv.URL()); err != nil {
			logger.Warnw("could not open browser", "url", srv.URL(), "error", err)
		}
	}

	<-ctx.Done()
	return srv.Stop(context.Background())
}
