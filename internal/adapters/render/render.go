// Package render writes draw snapshots as handout sheets, terminal tables and
// JSON or YAML exports.
package render

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jaykayes/lottery-script/internal/domain/types"
	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// DateLayout is the date printed in sheet titles.
const DateLayout = "02.01.2006"

// SheetLocation is the zone sheet titles are dated in. Snapshots store UTC.
var SheetLocation = time.Local

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

var sheetHeader = []string{"Name", "Equipment", "Comments", "Signature"}

// ParseFormat accepts table, csv, json and yaml in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Write renders snap in the given format. CSV output puts the pool sheets
// one after another, separated by an empty line.
func Write(w io.Writer, format Format, snap *types.Snapshot) error {
	switch format {
	case FormatTable:
		return WriteTable(w, snap)
	case FormatJSON:
		return WriteJSON(w, snap)
	case FormatYAML:
		return WriteYAML(w, snap)
	case FormatCSV:
		for i, pool := range snap.Pools {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := WriteSheet(w, pool, snap.CreatedAt.In(SheetLocation)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteSheet writes one pool's handout sheet: a title row with the pool and
// date, an empty row, the column header, then one row per winner with the
// item names on separate lines.
func WriteSheet(w io.Writer, pool types.PoolResult, date time.Time) error {
	cw := csv.NewWriter(w)
	title := fmt.Sprintf("%s %s", pool.Pool, date.Format(DateLayout))
	records := [][]string{
		{title, "", "", ""},
		{"", "", "", ""},
		sheetHeader,
	}
	for _, winner := range pool.Winners {
		records = append(records, []string{winner.Identity, strings.Join(winner.Names(), "\n"), "", ""})
	}
	return cw.WriteAll(records)
}

// SheetFileName is "<lottery>_<pool>.csv" with path separators and spaces
// replaced.
func SheetFileName(lotteryID, pool string) string {
	r := strings.NewReplacer("/", "-", `\`, "-", " ", "_")
	return r.Replace(lotteryID) + "_" + r.Replace(pool) + ".csv"
}

// WriteSheetFiles writes one sheet per pool into dir and returns the paths.
func WriteSheetFiles(dir string, snap *types.Snapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(snap.Pools))
	for _, pool := range snap.Pools {
		path := filepath.Join(dir, SheetFileName(snap.LotteryID, pool.Pool))
		if err := writeFile(path, func(w io.Writer) error {
			return WriteSheet(w, pool, snap.CreatedAt.In(SheetLocation))
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteTable prints every pool as an aligned two-column table.
func WriteTable(w io.Writer, snap *types.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "lottery %s  run %s  policy %s\n", snap.LotteryID, snap.RunID, snap.Policy)
	for _, pool := range snap.Pools {
		fmt.Fprintf(tw, "\n%s (%d)\n", pool.Pool, len(pool.Winners))
		fmt.Fprintln(tw, "NAME\tEQUIPMENT")
		for _, winner := range pool.Winners {
			fmt.Fprintf(tw, "%s\t%s\n", winner.Identity, strings.Join(winner.Names(), ", "))
		}
	}
	return tw.Flush()
}

// WriteSummaries prints one line per stored run.
func WriteSummaries(w io.Writer, sums []types.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLOTTERY\tCREATED\tWINNERS\tUNITS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.RunID, s.LotteryID, s.CreatedAt.Format(time.RFC3339), s.Winners, s.Units)
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
