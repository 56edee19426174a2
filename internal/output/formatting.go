package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jacoelho/crator/internal/crates"
)

// Format selects how a Summary is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrInvalidFormat = errors.New("format must be one of: text, json, yaml")

// ParseFormat parses a format name; the empty string selects text.
func ParseFormat(input string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(input))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidFormat, input)
	}
}

// Format writes the summary in the given format.
func (s *Summary) Format(format Format, w io.Writer) error {
	switch format {
	case FormatJSON:
		return s.formatJSON(w)
	case FormatYAML:
		return s.formatYAML(w)
	case FormatText:
		fallthrough
	default:
		return s.formatText(w)
	}
}

func (s *Summary) formatText(w io.Writer) error {
	for _, result := range s.Results {
		if err := formatCrateText(w, result); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "--------------------------------------------------------------------------------"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Crates:    %d (%d succeeded, %d failed, %.1f%%)\n",
		len(s.Results), s.Succeeded, s.Failed, s.SuccessPercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Duration:  %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}

	return nil
}

type textLine struct {
	label string
	value any
}

func formatCrateText(w io.Writer, result CrateResult) error {
	if result.Error != nil {
		_, err := fmt.Fprintf(w, "Fetching [%s] failed in %d ms: %v\n\n",
			result.Crate, result.Duration.Milliseconds(), result.Error)
		return err
	}

	info := result.Info
	if _, err := fmt.Fprintf(w, "Fetching [%s] done in %d ms\n", result.Crate, result.Duration.Milliseconds()); err != nil {
		return err
	}

	lines := []textLine{
		{"Latest", "v" + info.Latest},
		{"Downloads", info.Downloads},
		{"Total Downloads", info.TotalDownloads},
		{"Recent Downloads", info.RecentDownloads},
		{"Versions", info.Versions},
		{"Created At", info.CreatedAt},
		{"Updated At", info.UpdatedAt},
		{"License", info.License},
		{"Repository", info.Repository},
	}
	for _, field := range info.Fields {
		lines = append(lines, textLine{field.Label, field.Value})
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-20s%v\n", line.label+":", line.value); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}

type crateRecord struct {
	Crate                string       `json:"crate" yaml:"crate"`
	Success              bool         `json:"success" yaml:"success"`
	Error                string       `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMilliseconds int64        `json:"duration_ms" yaml:"duration_ms"`
	Info                 *crates.Info `json:"info,omitempty" yaml:"info,omitempty"`
}

type summaryRecord struct {
	Crates               []crateRecord `json:"crates" yaml:"crates"`
	Succeeded            int           `json:"succeeded" yaml:"succeeded"`
	Failed               int           `json:"failed" yaml:"failed"`
	SuccessPercentage    float64       `json:"success_percentage" yaml:"success_percentage"`
	DurationMilliseconds int64         `json:"duration_ms" yaml:"duration_ms"`
}

func (s *Summary) toRecord() summaryRecord {
	records := make([]crateRecord, 0, len(s.Results))
	for _, result := range s.Results {
		record := crateRecord{
			Crate:                result.Crate,
			Success:              result.Error == nil,
			DurationMilliseconds: result.Duration.Milliseconds(),
		}
		if result.Error != nil {
			record.Error = result.Error.Error()
		} else {
			info := result.Info
			record.Info = &info
		}
		records = append(records, record)
	}

	return summaryRecord{
		Crates:               records,
		Succeeded:            s.Succeeded,
		Failed:               s.Failed,
		SuccessPercentage:    s.SuccessPercentage(),
		DurationMilliseconds: s.TotalDuration.Milliseconds(),
	}
}

func (s *Summary) formatJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.toRecord())
}

func (s *Summary) formatYAML(w io.Writer) error {
	payload, err := yaml.Marshal(s.toRecord())
	if err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}

	_, err = w.Write(payload)
	return err
}
