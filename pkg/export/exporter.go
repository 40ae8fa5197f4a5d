package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/normalizer"
)

// ErrUnsupportedFormat is returned for format IDs this build cannot write,
// such as pdf or docx.
var ErrUnsupportedFormat = errors.New("export format not supported")

const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Formats lists the export format IDs that can be written locally.
func Formats() []string {
	return []string{FormatJSON, FormatCSV, FormatMarkdown, FormatHTML}
}

// Exporter writes analysis reports to files.
type Exporter struct {
	log *logger.Logger
	now func() time.Time
}

func NewExporter(log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{log: log.Component("exporter"), now: time.Now}
}

type jsonEnvelope struct {
	ExportedAt    string               `json:"exported_at"`
	FormatVersion int                  `json:"format_version"`
	Analysis      *normalizer.Analysis `json:"analysis"`
}

// Write renders a in format to w.
func (e *Exporter) Write(w io.Writer, a *normalizer.Analysis, format string) error {
	if a == nil {
		return errors.New("nothing to export")
	}
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonEnvelope{
			ExportedAt:    e.now().UTC().Format(time.RFC3339),
			FormatVersion: 1,
			Analysis:      a,
		})
	case FormatCSV:
		return writeCSV(w, a)
	case FormatMarkdown:
		return writeMarkdown(w, newReport(a, e.now()))
	case FormatHTML:
		return writeHTML(w, newReport(a, e.now()))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ExportReport writes a into outputDir as <keyword-slug>-<date>.<format> and
// returns the path. The file appears atomically.
func (e *Exporter) ExportReport(ctx context.Context, a *normalizer.Analysis, format, outputDir string) (string, error) {
	format = strings.ToLower(format)
	if !supported(format) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", slug(a.Keyword), e.now().Format("20060102"), format)
	path := filepath.Join(outputDir, name)

	tmp, err := os.CreateTemp(outputDir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := e.Write(tmp, a, format); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	e.log.WithFields(map[string]interface{}{
		"format":     format,
		"path":       path,
		"provenance": string(a.Provenance),
	}).Info("Analysis exported")
	return path, nil
}

func supported(format string) bool {
	for _, f := range Formats() {
		if f == format {
			return true
		}
	}
	return false
}

// slug lowercases s and joins its letter/digit runs with dashes.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "analysis"
	}
	return b.String()
}
