package catalog

import (
	"encoding/json"
	"math"
	"strconv"
)

// totalCandidates lists where the API has been seen to report the total
// item count, checked in order.
var totalCandidates = [][]string{
	{"total"},
	{"totalCount"},
	{"pagination", "total_results"},
}

// LookupTotal returns the first positive total count found under one of the
// candidate keys. Zero or missing values fall through to the next candidate.
func LookupTotal(doc map[string]any) (int, bool) {
	for _, path := range totalCandidates {
		v, ok := lookupPath(doc, path)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func lookupPath(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(math.Floor(f)), true
		}
	case float64:
		return int(math.Floor(n)), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}
