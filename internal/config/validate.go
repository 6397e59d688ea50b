package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/mgpai22/whisperburn/internal/transcribe"
	"github.com/mgpai22/whisperburn/internal/translate"
)

// MaxSyncOffset bounds the absolute sync offset in seconds.
const MaxSyncOffset = 2.0

func (c *Config) normalize() error {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	c.Transcription.Model = transcribe.CleanModelName(c.Transcription.Model)
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))

	for _, p := range []*string{&c.Paths.OutputDir, &c.Paths.LogFile} {
		expanded, err := ExpandPath(strings.TrimSpace(*p))
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	return c.validateTranslation()
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if !slices.Contains(transcribe.Providers(), transcribe.Provider(t.Provider)) {
		return fmt.Errorf("transcription.provider %q is not supported", t.Provider)
	}
	if _, err := transcribe.ParseDevice(t.Device); err != nil {
		return fmt.Errorf("transcription.device: %w", err)
	}
	if t.SyncOffset < -MaxSyncOffset || t.SyncOffset > MaxSyncOffset {
		return fmt.Errorf("transcription.sync_offset must be between %.1f and %.1f seconds", -MaxSyncOffset, MaxSyncOffset)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if !slices.Contains(translate.Providers(), translate.Provider(t.Provider)) {
		return fmt.Errorf("translation.provider %q is not supported", t.Provider)
	}
	if t.BatchSize < 0 {
		return errors.New("translation.batch_size must not be negative")
	}
	if t.Concurrency < 0 {
		return errors.New("translation.concurrency must not be negative")
	}
	return nil
}
