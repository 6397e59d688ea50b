package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/subtitle"
)

var exportCmd = &cobra.Command{
	Use:   "export [subtitle.ass]",
	Short: "Convert a subtitle document to SRT or VTT",
	Long: `Write the dialogue of an ASS document as a plain SRT or WebVTT file.
Override tags are dropped; timing is kept.

Examples:
  whisperburn export talk_1a2b3c4d.ass
  whisperburn export talk_1a2b3c4d.ass -f vtt -o talk.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "srt", "Output format (srt, vtt)")
}

func runExport(cmd *cobra.Command, args []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if format == subtitle.FormatASS {
		return fmt.Errorf("document is already ASS; choose srt or vtt")
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + subtitle.GetExtensionForFormat(format)
	} else if subtitle.GetFormatFromExtension(outputPath) != format {
		return fmt.Errorf("output %s does not match format %s", outputPath, format)
	}

	doc, err := subtitle.ReadDocument(args[0])
	if err != nil {
		return fmt.Errorf("failed to read subtitle document: %w", err)
	}
	if err := subtitle.Export(doc, outputPath); err != nil {
		return fmt.Errorf("failed to export subtitles: %w", err)
	}

	logger.Debugw("exported subtitles", "input", args[0], "format", format)
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles exported: %s\n", absOutput)
	return nil
}
