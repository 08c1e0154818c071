package holiday

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"attraction-booking/internal/slot"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped holiday files on disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based holiday loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "holiday-loader").Logger(),
	}
}

// Load reads a gzipped holiday file. Each line holds one date, optionally
// followed by a comma and a name; blank lines and lines starting with '#'
// are skipped.
func (l *fileLoader) Load(ctx context.Context, filePath string) (Set, error) {
	l.logger.Info().Str("file", filePath).Msg("loading holiday file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open holiday file")
		return nil, fmt.Errorf("failed to open holiday file %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	set, err := parseDates(ctx, gzipReader)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading holiday file")
		return nil, fmt.Errorf("error reading holiday file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("holidays_loaded", set.Size()).
		Msg("holiday file loaded successfully")

	return set, nil
}

func parseDates(ctx context.Context, r io.Reader) (Set, error) {
	set := NewSet(64)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		date, err := slot.ParseDate(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", lineNo, line)
		}
		set.Add(date)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
