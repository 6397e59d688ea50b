package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/transcribe"
	"github.com/mgpai22/whisperburn/internal/translate"
)

var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "List the colour names accepted for text and outline",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range subtitle.ColorNames() {
			fmt.Printf("  %-8s %s\n", name, subtitle.LookupColor(name, ""))
		}
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List recognizer sizes, translation models and the detected device",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(transcribe.DeviceStatus(transcribe.DetectGPU(cmd.Context())))

		fmt.Println("\nRecognizer sizes (whisperx):")
		for _, m := range transcribe.Models() {
			marker := ""
			if m.Name == cfg.Transcription.Model {
				marker = " (default)"
			}
			fmt.Printf("  %s%s\n", m.Label, marker)
		}

		fmt.Println("\nTranslation models:")
		for _, p := range translate.Providers() {
			fmt.Printf("  %s: %s\n", p, strings.Join(translate.KnownModels(p), ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(colorsCmd)
	rootCmd.AddCommand(modelsCmd)
}
