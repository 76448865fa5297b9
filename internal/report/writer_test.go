package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
)

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports")
	clk := clock.NewMockClock(time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC))
	return NewWriter(dir, clk), dir
}

func TestWriterTimestamp(t *testing.T) {
	w, _ := testWriter(t)
	if got := w.Timestamp(); got != "20240315_093045" {
		t.Errorf("expected 20240315_093045, got %s", got)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(PrefixAPStatus, "20240315_093045", "json")
	if got != "meraki_ap_status_20240315_093045.json" {
		t.Errorf("unexpected filename: %s", got)
	}
}

func TestWriteJSON(t *testing.T) {
	w, dir := testWriter(t)
	path, err := w.WriteJSON("out.json", map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if path != filepath.Join(dir, "out.json") {
		t.Errorf("unexpected path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	want := "{\n  \"a\": 1\n}\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, string(data))
	}
}

func TestWriteCSV(t *testing.T) {
	w, _ := testWriter(t)
	path, err := w.WriteCSV("out.csv", []string{"Name", "Count"}, [][]string{{"ap1", "3"}, {"ap2", "0"}})
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0][0] != "Name" || records[2][1] != "0" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestWriteTextTo(t *testing.T) {
	w, dir := testWriter(t)
	path, err := w.WriteTextTo(BackupSubdir, "sw1.txt", "hello\n")
	if err != nil {
		t.Fatalf("WriteTextTo failed: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(dir, BackupSubdir)) {
		t.Errorf("expected file under %s, got %s", BackupSubdir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("unexpected content: %q", string(data))
	}
}
