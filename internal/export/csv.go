package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"catalog-bridge/internal/catalog"
)

// DefaultPriority are the columns written first when present.
var DefaultPriority = []string{"sku", "price_trade"}

// ErrNoItems is returned by WriteCSV when there is nothing to export. No
// file is created in that case.
var ErrNoItems = errors.New("no items to export")

type Summary struct {
	Path    string
	Rows    int
	Columns []string
}

// Columns returns the union of all item fields: priority fields that occur
// at least once, in the given order, followed by the rest sorted.
func Columns(items []catalog.Item, priority []string) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for k := range item {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	pinned := make(map[string]struct{}, len(priority))
	for _, k := range priority {
		if _, dup := pinned[k]; dup {
			continue
		}
		pinned[k] = struct{}{}
		if _, ok := seen[k]; ok {
			cols = append(cols, k)
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		if _, ok := pinned[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(cols, rest...)
}

// WriteCSV writes a header row and one row per item to path, replacing any
// existing file. Fields an item lacks are left empty.
func WriteCSV(path string, items []catalog.Item, priority []string) (Summary, error) {
	if len(items) == 0 {
		return Summary{}, ErrNoItems
	}

	cols := Columns(items, priority)

	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(cols))
	for i, item := range items {
		for j, col := range cols {
			v, ok := item[col]
			if !ok {
				row[j] = ""
				continue
			}
			if row[j], err = formatValue(v); err != nil {
				return Summary{}, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
		}
		if err := w.Write(row); err != nil {
			return Summary{}, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return Summary{}, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return Summary{}, fmt.Errorf("close %s: %w", path, err)
	}

	return Summary{Path: path, Rows: len(items), Columns: cols}, nil
}

func formatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
