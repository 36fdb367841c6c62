// Package report formats benchmark results, one line per pass.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/weiihann/membash/bench"
)

// labelWidth matches the widest pass label so the rates line up.
const labelWidth = 20

// Generate writes one "label : rate" line per result.
func Generate(w io.Writer, results []bench.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%-*s: %s (%s in %s)\n",
			labelWidth,
			r.Label,
			formatRate(r.Throughput),
			units.BytesSize(float64(r.Bytes)),
			formatDuration(r.Elapsed),
		); err != nil {
			return fmt.Errorf("write %s: %w", r.Pass, err)
		}
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []bench.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func formatRate(bytesPerSec float64) string {
	return units.BytesSize(bytesPerSec) + "/s"
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
