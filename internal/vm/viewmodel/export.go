package viewmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dupreview/internal/models"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type exportEntry struct {
	Asset   models.Asset `json:"asset" yaml:"asset"`
	Visible bool         `json:"visible" yaml:"visible"`
}

type exportGroup struct {
	Name        string        `json:"name" yaml:"name"`
	Fingerprint string        `json:"fingerprint" yaml:"fingerprint"`
	Remaining   int           `json:"remaining" yaml:"remaining"`
	Entries     []exportEntry `json:"entries" yaml:"entries"`
}

type exportDoc struct {
	Session     string        `json:"session" yaml:"session"`
	ExportedAt  time.Time     `json:"exported_at" yaml:"exported_at"`
	GroupCursor int           `json:"group_cursor" yaml:"group_cursor"`
	EntryCursor int           `json:"entry_cursor" yaml:"entry_cursor"`
	Groups      []exportGroup `json:"groups" yaml:"groups"`
}

func (v *viewModel) snapshot() exportDoc {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	gc, ec := v.model.Cursor()
	doc := exportDoc{
		Session:     v.session.String(),
		ExportedAt:  time.Now().UTC(),
		GroupCursor: gc,
		EntryCursor: ec,
	}
	for _, g := range v.model.Groups() {
		eg := exportGroup{
			Name:        g.DisplayName(),
			Fingerprint: g.Fingerprint(),
			Remaining:   g.VisibleCount(),
		}
		for _, e := range g.Entries() {
			eg.Entries = append(eg.Entries, exportEntry{Asset: e.Asset(), Visible: e.Visible()})
		}
		doc.Groups = append(doc.Groups, eg)
	}
	return doc
}

// Export writes the review state in the given format ("json" or "yaml").
func (v *viewModel) Export(w io.Writer, format string) error {
	doc := v.snapshot()

	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	return nil
}

// ExportToFile picks the format from the file extension, defaulting to JSON.
func (v *viewModel) ExportToFile(path string) error {
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := v.Export(f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	slog.Info("Exported review state", slog.String("path", path), slog.String("format", format))
	return nil
}
