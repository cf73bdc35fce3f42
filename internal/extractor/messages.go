// Package extractor reads bank messages from exported message files.
package extractor

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// Format is the layout of a message export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ErrNotText is returned when a file looks binary rather than a text export.
var ErrNotText = errors.New("file does not look like a text message export")

// maxLineBytes bounds a single exported line.
const maxLineBytes = 1 << 20

// timestampLayouts are tried in order for the CSV timestamp column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// DetectFormat picks a format from the file extension. Anything that is not
// .csv or .json is read as one message per line.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// ReadFile reads every message in the export at path. defaultSender fills in
// the sender for formats that do not carry one.
func ReadFile(path, defaultSender string) ([]models.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	if !isReadableText(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotText)
	}

	msgs, err := Read(bytes.NewReader(data), DetectFormat(path), defaultSender)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range msgs {
		if msgs[i].Source == "" {
			msgs[i].Source = filepath.Base(path)
		}
	}
	return msgs, nil
}

// Read decodes messages in the given format.
func Read(r io.Reader, format Format, defaultSender string) ([]models.Message, error) {
	switch format {
	case FormatCSV:
		return readCSV(r, defaultSender)
	case FormatJSON:
		return readJSON(r, defaultSender)
	case FormatText:
		return readLines(r, defaultSender)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// readCSV reads rows of sender,timestamp,body. A first row naming those
// columns is treated as a header and may put them in any order; extra columns
// are ignored.
func readCSV(r io.Reader, defaultSender string) ([]models.Message, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := columns{sender: 0, timestamp: 1, body: 2}
	if hdr, ok := headerColumns(records[0]); ok {
		cols = hdr
		records = records[1:]
	}

	var msgs []models.Message
	for i, rec := range records {
		body := strings.TrimSpace(cols.get(rec, cols.body))
		if body == "" {
			continue
		}
		msg := models.Message{
			Body:   body,
			Sender: strings.TrimSpace(cols.get(rec, cols.sender)),
		}
		if msg.Sender == "" {
			msg.Sender = defaultSender
		}
		if raw := strings.TrimSpace(cols.get(rec, cols.timestamp)); raw != "" {
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			msg.Timestamp = ts
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

type columns struct {
	sender, timestamp, body int
}

func (c columns) get(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

var columnAliases = map[string]string{
	"sender":    "sender",
	"address":   "sender",
	"from":      "sender",
	"timestamp": "timestamp",
	"date":      "timestamp",
	"time":      "timestamp",
	"body":      "body",
	"message":   "body",
	"text":      "body",
	"raw_text":  "body",
}

func headerColumns(row []string) (columns, bool) {
	cols := columns{sender: -1, timestamp: -1, body: -1}
	for i, name := range row {
		switch columnAliases[strings.ToLower(strings.TrimSpace(name))] {
		case "sender":
			cols.sender = i
		case "timestamp":
			cols.timestamp = i
		case "body":
			cols.body = i
		}
	}
	return cols, cols.body >= 0
}

// readJSON reads an array of message objects using the API request fields.
func readJSON(r io.Reader, defaultSender string) ([]models.Message, error) {
	var items []struct {
		RawText   string `json:"raw_text"`
		Body      string `json:"body"`
		Sender    string `json:"sender"`
		Source    string `json:"source"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("invalid JSON export: %w", err)
	}

	msgs := make([]models.Message, 0, len(items))
	for i, it := range items {
		body := it.RawText
		if body == "" {
			body = it.Body
		}
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		msg := models.Message{Body: body, Sender: it.Sender, Source: it.Source}
		if msg.Sender == "" {
			msg.Sender = defaultSender
		}
		if it.Timestamp != "" {
			ts, err := parseTimestamp(it.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			msg.Timestamp = ts
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// readLines reads one message per non-blank line.
func readLines(r io.Reader, defaultSender string) ([]models.Message, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var msgs []models.Message
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		msgs = append(msgs, models.Message{Body: line, Sender: defaultSender})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return msgs, nil
}

// parseTimestamp accepts the layouts above or Unix epoch milliseconds, which
// is what Android SMS backups store.
func parseTimestamp(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// textQuality returns the share of runes that are printable or whitespace.
func textQuality(data []byte) float64 {
	total, readable := 0, 0
	for _, r := range string(data) {
		total++
		if r != unicode.ReplacementChar && (unicode.IsPrint(r) || unicode.IsSpace(r)) {
			readable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(readable) / float64(total)
}

// isReadableText rejects binary input such as a PDF or an SQLite file passed
// by mistake. Only the first 4 KiB are sampled.
func isReadableText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	return textQuality(sample) > 0.9
}
