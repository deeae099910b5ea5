// Package cli provides output writers for the weft command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/weftlab/weft/internal/models"
	"github.com/weftlab/weft/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a -output flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSimilarResults writes a neighbor query response to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteSimilarResults(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSimilarText(w, response)
	return nil
}

func writeSimilarText(w io.Writer, response *models.SimilarResponse) {
	if response.Query != "" {
		fmt.Fprintf(w, "\nFound %d neighbors of %s in %dms\n\n",
			len(response.Neighbors), response.Query, response.QueryTime)
	} else {
		fmt.Fprintf(w, "\nFound %d neighbors in %dms\n\n",
			len(response.Neighbors), response.QueryTime)
	}
	for _, n := range response.Neighbors {
		fmt.Fprintf(w, "%3d. %-24s %.4f", n.Rank, n.ItemID, n.Score)
		if n.Title != "" {
			fmt.Fprintf(w, "  %s", utils.Truncate(n.Title, 60))
		}
		fmt.Fprintln(w)
	}
}

// WriteStatus writes engine status to w in the given format.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "items:            %d   # items with a stored embedding\n", status.Items)
	fmt.Fprintf(w, "catalog_enabled:  %t\n", status.CatalogEnabled)
	if status.CatalogEnabled {
		fmt.Fprintf(w, "catalog_size:     %d\n", status.CatalogSize)
	}
	if status.Version != "" {
		fmt.Fprintf(w, "version:          %s\n", status.Version)
	}
	if status.LatestRun != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# latest run")
		writeRunText(w, status.LatestRun)
	}
	return nil
}

// WriteRunSummary writes a completed run's metadata to w in the given
// format; the build command prints this after a successful pipeline run.
func WriteRunSummary(w io.Writer, run *models.Run, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, run)
	}
	fmt.Fprintf(w, "Build complete in %dms\n", run.ElapsedMS)
	writeRunText(w, run)
	return nil
}

func writeRunText(w io.Writer, run *models.Run) {
	fmt.Fprintf(w, "run_id:           %s\n", run.ID)
	fmt.Fprintf(w, "created_at:       %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "k:                %d\n", run.K)
	fmt.Fprintf(w, "normalization:    %s\n", run.Normalization)
	fmt.Fprintf(w, "rows_in:          %d\n", run.RowsIn)
	fmt.Fprintf(w, "rows_deduped:     %d\n", run.RowsDeduped)
	fmt.Fprintf(w, "links:            %d\n", run.Links)
	fmt.Fprintf(w, "items:            %d\n", run.Items)
	if len(run.SingularValues) > 0 {
		fmt.Fprintf(w, "singular_values:  %s\n", formatSingularValues(run.SingularValues, 8))
	}
}

// formatSingularValues renders up to max leading singular values; the tail
// is elided since spectra routinely run to hundreds of entries.
func formatSingularValues(sigma []float64, max int) string {
	n := len(sigma)
	shown := n
	if shown > max {
		shown = max
	}
	parts := make([]string, 0, shown+1)
	for _, v := range sigma[:shown] {
		parts = append(parts, strconv.FormatFloat(v, 'g', 6, 64))
	}
	if shown < n {
		parts = append(parts, fmt.Sprintf("... (%d total)", n))
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
