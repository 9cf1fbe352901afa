package perf

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const exportFilename = "entwine-perf.json"

// Report is the document written by --perf.
type Report struct {
	DroppedSpans int            `json:"dropped_spans,omitempty"`
	Summary      []SpanSummary  `json:"summary"`
	Spans        []SpanSnapshot `json:"spans"`
}

// SpanSummary totals every span sharing a name, slowest names first.
type SpanSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"total_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// ExportToFile writes a Report to <outDir>/entwine-perf.json. Absolute paths in path-like
// attributes are made relative to baseDir so reports can be shared without leaking home
// directories. A returned error should not fail the command.
func ExportToFile(fs afero.Fs, outDir string, baseDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}
	if err := fs.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	report := Report{DroppedSpans: DroppedSpans(), Spans: make([]SpanSnapshot, 0, len(spans))}
	for _, span := range spans {
		span.Attributes = relativeAttributes(span.Attributes, baseDir)
		report.Spans = append(report.Spans, span)
	}
	report.Summary = Summarize(report.Spans)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, exportFilename)
	return path, afero.WriteFile(fs, path, data, 0644)
}

func Summarize(spans []SpanSnapshot) []SpanSummary {
	byName := map[string]*SpanSummary{}
	for _, span := range spans {
		summary, ok := byName[span.Name]
		if !ok {
			summary = &SpanSummary{Name: span.Name}
			byName[span.Name] = summary
		}
		ms := float64(span.Duration()) / float64(time.Millisecond)
		summary.Count++
		summary.TotalMs += ms
		if ms > summary.MaxMs {
			summary.MaxMs = ms
		}
	}

	out := make([]SpanSummary, 0, len(byName))
	for _, summary := range byName {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMs != out[j].TotalMs {
			return out[i].TotalMs > out[j].TotalMs
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func relativeAttributes(attrs map[string]interface{}, baseDir string) map[string]interface{} {
	if len(attrs) == 0 {
		return attrs
	}
	out := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		text, ok := value.(string)
		if !ok || !isPathKey(key) {
			out[key] = value
			continue
		}
		out[key] = relativePath(text, baseDir)
	}
	return out
}

// isPathKey matches the attribute names the commands use for filesystem locations.
func isPathKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "path" || key == "root" || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func relativePath(value string, baseDir string) string {
	if baseDir != "" && filepath.IsAbs(value) {
		if rel, err := filepath.Rel(baseDir, value); err == nil {
			value = rel
		}
	}
	return filepath.ToSlash(strings.TrimPrefix(filepath.Clean(value), "./"))
}
