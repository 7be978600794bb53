package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sla-overage-report/internal/errs"
)

func writeCSV(t *testing.T, data string) string {
	t.Helper()
	file, err := os.CreateTemp(t.TempDir(), "tasks-*.csv")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := file.WriteString(data); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	return file.Name()
}

func TestReadCSVFileCanonicalHeaders(t *testing.T) {
	path := writeCSV(t, "owner_id,category,activity_date,created_date,duration_of_task\n"+
		"005A,CW,2025-11-10,2025-11-05,4\n"+
		"005B,CD,2025-11-12,2025-11-06,0\n")

	result, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	first := result.Records[0]
	if first.OwnerID != "005A" || first.Category != "CW" || first.DurationDays != 4 {
		t.Fatalf("unexpected record %+v", first)
	}
	if !first.ActivityDate.Equal(time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected activity date %s", first.ActivityDate)
	}
	if first.SLA != nil {
		t.Fatal("expected SLA to be unset at ingestion")
	}
}

func TestReadCSVExportHeaders(t *testing.T) {
	data := "\ufeffOwnerId,Task_Category__c,ActivityDate,CreatedDate,Duration of Task\n" +
		"005A,TRIN,2025-11-10,2025-11-05T14:03:00.000+0000,16\n"
	result, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	record := result.Records[0]
	if record.Category != "TRIN" || record.DurationDays != 16 {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.CreatedDate.IsZero() {
		t.Fatal("expected created date with offset to parse")
	}
}

func TestReadCSVCountsInvalidRows(t *testing.T) {
	data := "owner_id,category,activity_date,created_date,duration_of_task\n" +
		"005A,CW,2025-11-10,2025-11-05,4\n" +
		",CW,2025-11-10,2025-11-05,4\n" +
		"005A,,2025-11-10,2025-11-05,4\n" +
		"005A,CW,2025-11-10,2025-11-05,\n" +
		"005A,CW,2025-11-10,2025-11-05,2.5\n" +
		"005A,CW,2025-11-10,2025-11-05,3.0\n" +
		"005A,CW,not-a-date,2025-11-05,1\n"
	result, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if result.InvalidRows != 4 {
		t.Fatalf("expected 4 invalid rows, got %d", result.InvalidRows)
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}
	if result.Records[1].DurationDays != 3 {
		t.Fatalf("expected whole float duration 3, got %d", result.Records[1].DurationDays)
	}
	if !result.Records[2].ActivityDate.IsZero() {
		t.Fatal("expected unparseable activity date to be zero")
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	data := "owner_id,category,activity_date,created_date\n005A,CW,2025-11-10,2025-11-05\n"
	path := writeCSV(t, data)

	_, err := ReadCSVFile(path)
	var schemaErr *errs.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Column != "duration_of_task" {
		t.Fatalf("expected duration_of_task, got %s", schemaErr.Column)
	}
	if !errors.Is(err, errs.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	var ingestErr *errs.IngestionError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestionError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestReadCSVEmptyFile(t *testing.T) {
	_, err := ReadCSVFile(writeCSV(t, ""))
	var ingestErr *errs.IngestionError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestionError for empty file, got %v", err)
	}
}

func TestParseDateLayouts(t *testing.T) {
	valid := []string{
		"2025-11-10",
		"2025/11/10",
		"11/10/2025",
		"2025-11-10 08:30:00",
		"2025-11-10T08:30:00",
		"2025-11-10T08:30:00Z",
		"2025-11-10T08:30:00+0000",
	}
	for _, value := range valid {
		parsed, err := ParseDate(value)
		if err != nil {
			t.Fatalf("%s: %v", value, err)
		}
		if parsed.Year() != 2025 || parsed.Month() != time.November || parsed.Day() != 10 {
			t.Fatalf("%s: unexpected date %s", value, parsed)
		}
	}
	if _, err := ParseDate("10 Nov 2025"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}
