// Package export renders completed sessions as JSON or CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apiprobe/apiprobe/internal/models"
	"github.com/apiprobe/apiprobe/internal/stats"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json' or 'csv'", s)
	}
}

// csvHeader is the fixed column layout consumers of the CSV export rely on
const csvHeader = `Timestamp,Endpoint Name,Method,Path,Category,Status,Status Code,Request Time (ms),Response Time (ms),Total Time (ms),Request Size (bytes),Response Size (bytes),Accuracy (%),Error Message`

// envelope is the JSON export document
type envelope struct {
	Session    *models.TestSession `json:"session"`
	Statistics stats.Statistics    `json:"statistics"`
	ExportedAt time.Time           `json:"exportedAt"`
}

// Session exports a session in the given format to a file, or to stdout
// when filePath is empty. Statistics are recomputed from the session's
// results so the export is always consistent with them.
func Session(session *models.TestSession, format Format, filePath string) error {
	w, closer, err := getWriter(filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	switch format {
	case FormatJSON:
		return WriteJSON(w, session)
	case FormatCSV:
		return WriteCSV(w, session)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// getWriter returns an io.Writer for output (stdout or file)
func getWriter(filePath string) (io.Writer, io.Closer, error) {
	if filePath == "" {
		return os.Stdout, nil, nil
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

// WriteJSON writes the JSON export document
func WriteJSON(w io.Writer, session *models.TestSession) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{
		Session:    session,
		Statistics: stats.Aggregate(session.Results),
		ExportedAt: time.Now().UTC(),
	})
}

// WriteCSV writes one row per result. String fields are always quoted;
// numeric fields are not.
func WriteCSV(w io.Writer, session *models.TestSession) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}

	for _, r := range session.Results {
		row := strings.Join([]string{
			quote(r.RequestStart.UTC().Format(time.RFC3339)),
			quote(r.EndpointName),
			quote(r.Method),
			quote(r.Path),
			quote(r.Category),
			quote(string(r.Status)),
			strconv.Itoa(r.StatusCode),
			strconv.FormatInt(r.RequestTimeMs, 10),
			strconv.FormatInt(r.ResponseTimeMs, 10),
			strconv.FormatInt(r.TotalTimeMs, 10),
			strconv.Itoa(r.RequestSize),
			strconv.Itoa(r.ResponseSize),
			strconv.FormatFloat(r.AccuracyPercentage, 'f', 2, 64),
			quote(r.Error),
		}, ",")

		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}

	return nil
}

// quote wraps a string field in double quotes, escaping embedded quotes
// per RFC 4180
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
