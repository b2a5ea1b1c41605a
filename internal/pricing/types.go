package pricing

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tier is the unit price from a minimum quantity upwards.
type Tier struct {
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Update struct {
	SKU     string `json:"sku"`
	Pricing []Tier `json:"pricing"`
}

// SampleUpdates is the payload sent when no pricing file is configured.
func SampleUpdates() []Update {
	return []Update{
		{
			SKU: "EXAMPLE-SKU-123",
			Pricing: []Tier{
				{Quantity: 1, Price: 99.99},
			},
		},
	}
}

// LoadUpdates reads a JSON array of updates from path.
func LoadUpdates(path string) ([]Update, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(b, &updates); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return updates, nil
}
