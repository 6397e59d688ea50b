package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/whisperburn/internal/pipeline"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

var burnCmd = &cobra.Command{
	Use:   "burn [clip] [subtitle.ass]",
	Short: "Burn an (edited) subtitle document into a clip",
	Long: `Apply the chosen style to the subtitle document and render it into the clip.
The result is written to the output directory as <name>_final.mp4.

Colour names: run "whisperburn colors".

Examples:
  whisperburn burn output_videos/talk_1a2b3c4d_trim.mp4 output_videos/talk_1a2b3c4d.ass
  whisperburn burn clip.mp4 subs.ass --text-color Yellow --font-size 56`,
	Args: cobra.ExactArgs(2),
	RunE: runBurn,
}

func init() {
	rootCmd.AddCommand(burnCmd)

	def := subtitle.DefaultStyle()
	defText, _ := subtitle.ColorName(def.TextColor)
	defOutline, _ := subtitle.ColorName(def.OutlineColor)

	burnCmd.Flags().String("text-color", defText, "Text colour name")
	burnCmd.Flags().String("outline-color", defOutline, "Outline colour name")
	burnCmd.Flags().Int("font-size", def.FontSize, "Font size")
	burnCmd.Flags().Int("outline-width", def.OutlineWidth, "Outline width")
	burnCmd.Flags().Int("margin-bottom", def.MarginBottom, "Bottom margin")
	burnCmd.Flags().Int("margin-side", def.MarginSide, "Left and right margin")
}

func runBurn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	style, err := burnStyle(cmd)
	if err != nil {
		return err
	}

	doc, err := subtitle.ReadDocument(args[1])
	if err != nil {
		return fmt.Errorf("failed to read subtitle document: %w", err)
	}
	gen := &pipeline.Generation{
		Clip:         args[0],
		Stem:         clipStem(args[0]),
		SubtitlePath: args[1],
		Document:     doc,
	}

	svc, err := newService(ctx, cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(svc.OutputDir(), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Infow("Burning subtitles",
		"clip", gen.Clip,
		"subtitles", gen.SubtitlePath,
		"font_size", style.FontSize,
	)

	final, err := svc.Burn(ctx, gen, style, logProgress("burn"))
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(final)
	fmt.Printf("Video saved: %s\n", absOutput)
	return nil
}

func burnStyle(cmd *cobra.Command) (subtitle.Style, error) {
	def := subtitle.DefaultStyle()
	textName, _ := cmd.Flags().GetString("text-color")
	outlineName, _ := cmd.Flags().GetString("outline-color")

	style := def
	style.TextColor = subtitle.LookupColor(textName, def.TextColor)
	style.OutlineColor = subtitle.LookupColor(outlineName, def.OutlineColor)
	style.FontSize, _ = cmd.Flags().GetInt("font-size")
	style.OutlineWidth, _ = cmd.Flags().GetInt("outline-width")
	style.MarginBottom, _ = cmd.Flags().GetInt("margin-bottom")
	style.MarginSide, _ = cmd.Flags().GetInt("margin-side")

	if err := style.Validate(); err != nil {
		return subtitle.Style{}, err
	}
	return style, nil
}

// clipStem recovers the generation stem from a trimmed clip path, so
// talk_1a2b3c4d_trim.mp4 burns to talk_1a2b3c4d_final.mp4.
func clipStem(clip string) string {
	base := filepath.Base(clip)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_trim")
	if base == "" {
		return "clip"
	}
	return base
}
