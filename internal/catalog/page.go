package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Item is one catalog record. Field names are not known up front.
type Item map[string]any

type Page struct {
	Items []Item
	Total int      // 0 when the response carries no total
	Keys  []string // top-level response keys, sorted
}

// decodePage parses a listing response. Numbers are kept as json.Number so
// SKUs and prices round-trip to the export without float formatting.
func decodePage(body []byte) (Page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Page{}, err
	}

	page := Page{Keys: make([]string, 0, len(doc))}
	for k := range doc {
		page.Keys = append(page.Keys, k)
	}
	sort.Strings(page.Keys)

	if total, ok := LookupTotal(doc); ok {
		page.Total = total
	}

	raw, ok := doc["items"]
	if !ok || raw == nil {
		return page, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return page, fmt.Errorf("items: expected array, got %T", raw)
	}

	page.Items = make([]Item, 0, len(list))
	for i, v := range list {
		obj, ok := v.(map[string]any)
		if !ok {
			return page, fmt.Errorf("items[%d]: expected object, got %T", i, v)
		}
		page.Items = append(page.Items, Item(obj))
	}

	return page, nil
}
