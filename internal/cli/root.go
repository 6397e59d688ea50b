package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/config"
	"github.com/mgpai22/whisperburn/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "whisperburn",
	Short: "Transcribe a video clip and burn styled subtitles into it",
	Long: `WhisperBurn trims a clip out of a video, transcribes it into an editable
ASS subtitle document, and re-encodes the clip with the (possibly hand-edited)
subtitles burned in.

Run "whisperburn serve" for the local web UI, or use the generate and burn
commands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, resolved, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{Verbose: verbose, File: cfg.Paths.LogFile})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		logger.Debugw("configuration loaded", "path", resolved, "exists", exists)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/whisperburn/config.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		String("output-dir", "", "Directory for generated clips and documents")
}

// outputDir returns --output-dir or the configured directory.
func outputDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		return dir
	}
	return cfg.Paths.OutputDir
}
