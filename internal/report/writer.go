package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packetintransit/meraki/internal/clock"
)

// File name prefixes for the timestamped report files. The prefix plus
// a run timestamp plus the extension is the whole name, so repeated
// runs never clobber each other.
const (
	PrefixAPStatus        = "meraki_ap_status"
	PrefixClientUsage     = "meraki_client_usage"
	PrefixClientEvents    = "meraki_client_events"
	PrefixClientCSV       = "client_traffic"
	PrefixTrafficText     = "client_traffic_summary"
	PrefixAppCSV          = "app_traffic"
	PrefixRawTraffic      = "raw_traffic_data"
	PrefixDeviceInventory = "device_inventory"
)

// timestampLayout is the filename timestamp format (20060102_150405).
const timestampLayout = "20060102_150405"

// Filename joins a report prefix, a run timestamp, and an extension.
func Filename(prefix, timestamp, ext string) string {
	return prefix + "_" + timestamp + "." + ext
}

// Writer persists report files under a single output directory. A run
// takes one Timestamp up front and reuses it for every file it writes,
// so the JSON and CSV halves of a report always pair up.
type Writer struct {
	dir string
	clk clock.Clock
}

// NewWriter returns a Writer rooted at dir. The directory is created
// lazily on first write.
func NewWriter(dir string, clk clock.Clock) *Writer {
	if clk == nil {
		clk = &clock.RealClock{}
	}
	return &Writer{dir: dir, clk: clk}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Timestamp returns the current time rendered for filenames.
func (w *Writer) Timestamp() string {
	return w.clk.Now().Format(timestampLayout)
}

// Path returns the absolute location a named file will be written to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *Writer) ensureDir() error {
	if w.dir == "" {
		return nil
	}
	return os.MkdirAll(w.dir, 0755)
}

// WriteJSON marshals v with two-space indentation and writes it to
// name inside the output directory, returning the full path.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	path := w.Path(name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV writes a header row followed by rows to name inside the
// output directory, returning the full path.
func (w *Writer) WriteCSV(name string, header []string, rows [][]string) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("writing %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("writing %s row: %w", name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", name, err)
	}
	return path, nil
}

// WriteText writes a plain text document to name inside the output
// directory, returning the full path.
func (w *Writer) WriteText(name, content string) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := w.Path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTextTo writes content to a file under a subdirectory of the
// output directory, creating the subdirectory as needed. The switch
// backups use this to keep their files grouped.
func (w *Writer) WriteTextTo(subdir, name, content string) (string, error) {
	dir := w.dir
	if subdir != "" {
		dir = filepath.Join(w.dir, subdir)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
