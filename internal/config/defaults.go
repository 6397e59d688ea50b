package config

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: "./output_videos",
			EnvFile:   ".env",
		},
		Server: Server{
			Bind:        "127.0.0.1:7860",
			OpenBrowser: true,
		},
		Transcription: Transcription{
			Provider: "whisperx",
			Model:    "medium",
			Device:   "auto",
			Command:  "whisperx",
		},
		Translation: Translation{
			Provider:    "gemini",
			BatchSize:   50,
			Concurrency: 3,
		},
		FFmpeg: FFmpeg{
			AllowDownload: true,
		},
	}
}
