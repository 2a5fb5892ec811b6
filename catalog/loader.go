package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
)

// Compile-time check to ensure Loader implements CatalogLoader
var _ interfaces.CatalogLoader = (*Loader)(nil)

const (
	// Columns of the reference file carrying the brand and generic names.
	brandNameColumn   = 3
	genericNameColumn = 5
	requiredColumns   = 6

	// Normalized names must be longer than this to enter the catalog.
	minNameLength = 2

	defaultChunkSize    = 1 << 20 // 1 MB read buffer bounds memory
	defaultPublishEvery = 5000
	defaultMaxRows      = 100_000
)

// Loader streams the reference drug file into the catalog store. The file is
// read in fixed-size chunks, split into lines, and parsed with quote-aware
// comma splitting. Every publishEvery rows the working set is published so
// the search surface improves without waiting for the full load.
type Loader struct {
	store        interfaces.CatalogStore
	chunkSize    int
	publishEvery int
	maxRows      int
}

// NewLoader creates a loader over the given store. maxRows caps the rows
// processed per load as a resource-exhaustion guard; zero or negative uses
// the default cap.
func NewLoader(store interfaces.CatalogStore, maxRows int) *Loader {
	if maxRows < 1 {
		maxRows = defaultMaxRows
	}
	return &Loader{
		store:        store,
		chunkSize:    defaultChunkSize,
		publishEvery: defaultPublishEvery,
		maxRows:      maxRows,
	}
}

// Load populates the catalog from sourcePath. The seed set is published
// immediately so search never blocks on the load; if the source is missing
// or unreadable the catalog settles on the seed set permanently. A second
// Load while one is in progress is a no-op.
func (l *Loader) Load(ctx context.Context, sourcePath string) error {
	if !l.store.BeginUpdate() {
		logging.Info("Catalog load already in progress, skipping...")
		return nil
	}
	defer l.store.EndUpdate()

	start := time.Now()
	l.store.PublishSeed(SeedNameSet())

	if sourcePath == "" {
		logging.Warn("No catalog source configured, staying on built-in seed list",
			"seed_names", len(fallbackSeedNames))
		l.store.MarkLoaded()
		return nil
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		logging.Warn("Catalog source unavailable, staying on built-in seed list",
			"path", sourcePath, "error", err)
		l.store.MarkLoaded()
		return nil
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close catalog source", "error", err)
		}
	}()

	// Fallback entries persist unless an identical normalized form
	// overwrites them.
	working := SeedNameSet()

	streamErr := l.stream(ctx, file, working)
	if streamErr != nil {
		logging.Warn("Catalog streaming aborted, keeping partial set",
			"error", streamErr, "names", len(working))
	}

	l.store.Publish(working)
	l.store.MarkLoaded()

	logging.Info("Catalog load completed",
		"duration", time.Since(start).String(),
		"names", len(working),
		"source", sourcePath)

	return streamErr
}

// stream reads the source in fixed-size chunks and feeds complete lines to
// the row parser. The first line is the header and is skipped.
func (l *Loader) stream(ctx context.Context, r io.Reader, working map[string]struct{}) error {
	buf := make([]byte, l.chunkSize)
	var pending []byte

	rows := 0
	sincePublish := 0
	headerSkipped := false
	skippedMissingColumns := 0

	processLine := func(line string) {
		if line == "" {
			return
		}
		if !headerSkipped {
			headerSkipped = true
			return
		}

		rows++
		sincePublish++

		if !l.parseRow(line, working) {
			skippedMissingColumns++
		}

		if sincePublish >= l.publishEvery {
			l.store.Publish(working)
			l.store.AddRowsProcessed(sincePublish)
			sincePublish = 0
			logging.Debug("Published partial catalog snapshot",
				"rows", rows, "names", len(working))
		}
	}

	for rows < l.maxRows {
		select {
		case <-ctx.Done():
			l.store.AddRowsProcessed(sincePublish)
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			for rows < l.maxRows {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := strings.TrimSuffix(string(pending[:idx]), "\r")
				pending = pending[idx+1:]
				processLine(line)
			}
		}

		if err == io.EOF {
			if rows < l.maxRows {
				processLine(strings.TrimSuffix(string(pending), "\r"))
			}
			break
		}
		if err != nil {
			l.store.AddRowsProcessed(sincePublish)
			return fmt.Errorf("failed to read catalog source: %w", err)
		}
	}

	l.store.AddRowsProcessed(sincePublish)

	if rows >= l.maxRows {
		logging.Warn("Catalog row cap reached, stopping early",
			"cap", l.maxRows, "names", len(working))
	}
	if skippedMissingColumns > 0 {
		logging.Info("Catalog skip statistics",
			"missing_columns", skippedMissingColumns,
			"rows_processed", rows)
	}

	return nil
}

// parseRow extracts the brand and generic name columns from one data row and
// inserts their normalized forms into the working set. Returns false when
// the row has too few columns to carry both names.
func (l *Loader) parseRow(line string, working map[string]struct{}) bool {
	fields := splitCSVLine(line)
	if len(fields) < requiredColumns {
		return false
	}

	for _, idx := range [2]int{brandNameColumn, genericNameColumn} {
		value := strings.TrimSpace(fields[idx])
		if value == "" || strings.EqualFold(value, "null") {
			continue
		}

		name := NormalizeName(value)
		if utf8.RuneCountInString(name) > minNameLength {
			working[name] = struct{}{}
		}
	}

	return true
}

// splitCSVLine splits a comma-separated line with quote awareness: a quote
// toggles quoted mode, commas inside quotes do not separate fields, and the
// quote characters themselves are stripped from the field values.
func splitCSVLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}

	fields = append(fields, field.String())
	return fields
}
