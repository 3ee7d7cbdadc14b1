// package formatter exports comparison results to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
)

// Format names an export format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias (md, txt).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown or json)", shared.ErrValidation, s)
	}
}

// section is one of the three track lists of a result, labelled for export.
type section struct {
	key    string
	title  string
	tracks []models.TrackRecord
}

func sections(r *models.ComparisonResult) []section {
	return []section{
		{"common", "In common", r.Common},
		{"only_a", "Only " + r.UserA.DisplayName, r.OnlyA},
		{"only_b", "Only " + r.UserB.DisplayName, r.OnlyB},
	}
}

// ExportToCSV converts a result to CSV with columns: Section, ID, Title, Artists, Album, URL
func ExportToCSV(r *models.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Section", "ID", "Title", "Artists", "Album", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range sections(r) {
		for _, track := range s.tracks {
			record := []string{
				s.key,
				track.ID,
				track.Name,
				strings.Join(track.Artists, "; "),
				track.Album,
				track.ExternalURL,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a result to Markdown with a stats table and one list per section.
//
// Tracks with an external URL are linked.
func ExportToMarkdown(r *models.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	s := r.Stats

	fmt.Fprintf(&buf, "# %s × %s\n\n", r.UserA.DisplayName, r.UserB.DisplayName)
	fmt.Fprintf(&buf, "**Compatibility**: %.1f%%\n\n", s.CompatibilityScore)

	buf.WriteString("| | Tracks |\n|---|---|\n")
	fmt.Fprintf(&buf, "| %s | %d |\n", r.UserA.DisplayName, s.TotalA)
	fmt.Fprintf(&buf, "| %s | %d |\n", r.UserB.DisplayName, s.TotalB)
	fmt.Fprintf(&buf, "| In common | %d |\n", s.CommonCount)

	for _, sec := range sections(r) {
		fmt.Fprintf(&buf, "\n## %s (%d)\n\n", sec.title, len(sec.tracks))
		if len(sec.tracks) == 0 {
			buf.WriteString("_None_\n")
			continue
		}
		for i, track := range sec.tracks {
			title := track.Name
			if track.ExternalURL != "" {
				title = fmt.Sprintf("[%s](%s)", track.Name, track.ExternalURL)
			}
			albumPart := ""
			if track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album)
			}
			fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, strings.Join(track.Artists, ", "), title, albumPart)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a result to plain text format
func ExportToText(r *models.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	s := r.Stats

	fmt.Fprintf(&buf, "%s × %s\n", r.UserA.DisplayName, r.UserB.DisplayName)
	fmt.Fprintf(&buf, "Compatibility: %.1f%%\n", s.CompatibilityScore)
	fmt.Fprintf(&buf, "In common: %d\n", s.CommonCount)
	fmt.Fprintf(&buf, "Only %s: %d of %d\n", r.UserA.DisplayName, s.OnlyACount, s.TotalA)
	fmt.Fprintf(&buf, "Only %s: %d of %d\n", r.UserB.DisplayName, s.OnlyBCount, s.TotalB)

	for _, sec := range sections(r) {
		if len(sec.tracks) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n%s:\n", sec.title)
		for i, track := range sec.tracks {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name)
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a result to indented JSON, the same shape the join endpoint returns.
func ExportToJSON(r *models.ComparisonResult) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders r in format f.
func Export(r *models.ComparisonResult, f Format) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no result to export", shared.ErrValidation)
	}

	switch f {
	case Text:
		return ExportToText(r)
	case CSV:
		return ExportToCSV(r)
	case Markdown:
		return ExportToMarkdown(r)
	case JSON:
		return ExportToJSON(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrValidation, f)
	}
}

// WriteExport renders r in format f and writes it to path.
func WriteExport(r *models.ComparisonResult, f Format, path string) error {
	data, err := Export(r, f)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return nil
}
