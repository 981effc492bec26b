package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/dailyfetch/models"
)

func sampleRecord() models.Record {
	return models.Record{
		RunID:     "run-1",
		Mode:      models.ModeSingle,
		Source:    "alpha",
		Date:      "2024-03-07",
		Outcome:   "saved",
		URL:       "http://img.test/2024/03/07.jpg",
		ImagePath: "data/alpha/2024/20240307.jpg",
		Duration:  1500 * time.Millisecond,
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "runs.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write(sampleRecord()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	// Reopening appends without a second header.
	writer, err = NewCSVWriter(path)
	if err != nil {
		t.Fatalf("reopen csv writer: %v", err)
	}
	if err := writer.Write(sampleRecord()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if records[0][0] != "run_id" || records[0][2] != "source" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][4] != "saved" || records[1][8] != "1500" {
		t.Fatalf("unexpected record: %v", records[1])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")

	writer, err := NewReportWriter("json", path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write(sampleRecord()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.Record
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.Source != "alpha" {
			t.Fatalf("source=%q, want alpha", decoded.Source)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestNewReportWriterUnsupported(t *testing.T) {
	if _, err := NewReportWriter("xml", filepath.Join(t.TempDir(), "r.xml")); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
