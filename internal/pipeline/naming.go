package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxStemRunes   = 30
	reserveRetries = 8
	defaultStem    = "clip"
)

// SanitizeStem turns a source file name into a safe output stem: spaces
// become underscores, anything outside [A-Za-z0-9._-] is dropped, and the
// result is capped at 30 runes.
func SanitizeStem(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder
	n := 0
	for _, r := range base {
		if n == maxStemRunes {
			break
		}
		switch {
		case r == ' ':
			r = '_'
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
		default:
			continue
		}
		sb.WriteRune(r)
		n++
	}

	stem := strings.Trim(sb.String(), ".")
	if stem == "" {
		return defaultStem
	}
	return stem
}

func newShortID() string {
	return uuid.NewString()[:8]
}

// reserve claims "<stem>_<id><suffix>" in dir with O_EXCL, drawing a fresh id
// on collision. It returns the id and the reserved path.
func reserve(dir, stem, suffix string, newID func() string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	for range reserveRetries {
		id := newID()
		path := filepath.Join(dir, stem+"_"+id+suffix)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("reserve %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", "", fmt.Errorf("reserve %s: %w", path, err)
		}
		return id, path, nil
	}
	return "", "", fmt.Errorf("could not reserve a unique name for %q after %d attempts", stem, reserveRetries)
}
