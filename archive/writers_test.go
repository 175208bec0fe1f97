package archive

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/scout-bot/models"
)

var testRecord = models.ArchivedRecord{
	Run:     12,
	FoundAt: time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	Record: models.Record{
		District:   "Mitte",
		Title:      "Deutsch A1",
		FreePlaces: "3",
	},
}

func TestCSVWriterAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "courses.csv")

	for i := 0; i < 2; i++ {
		writer, err := NewCSVWriter(path)
		if err != nil {
			t.Fatalf("create csv writer: %v", err)
		}
		if err := writer.Write([]models.ArchivedRecord{testRecord}); err != nil {
			t.Fatalf("write csv: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("close csv: %v", err)
		}
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
		t.Fatalf("records=%d, want header plus 2 rows", len(records))
	}
	if records[0][0] != "run" || records[0][2] != "district" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "12" || records[1][1] != "2025-11-04T13:09:13Z" || records[1][3] != "Deutsch A1" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]models.ArchivedRecord{testRecord, testRecord}); err != nil {
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
	lines := 0
	for scanner.Scan() {
		var got models.ArchivedRecord
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatalf("decode line %d: %v", lines, err)
		}
		if got.Run != 12 || got.District != "Mitte" || !got.FoundAt.Equal(testRecord.FoundAt) {
			t.Fatalf("unexpected record: %+v", got)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("lines=%d, want 2", lines)
	}
}

func TestNewSelectsFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format  string
		file    string
		wantErr bool
	}{
		{format: "csv", file: "a.csv"},
		{format: "json", file: "a.jsonl"},
		{format: "dual", file: "b.csv"},
		{format: "xml", file: "a.xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			writer, err := New(tt.format, filepath.Join(dir, tt.file))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if err := writer.Write([]models.ArchivedRecord{testRecord}); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "b.jsonl")); err != nil {
		t.Fatalf("dual writer should create b.jsonl: %v", err)
	}
}
