// Package catalog stores the supplier catalog in a Qdrant collection and
// serves filtered nearest-neighbour queries over it.
package catalog

import "strings"

// Supplier is one catalog entry: who sells what, from where, and at what
// minimum order size.
type Supplier struct {
	Name        string  `json:"name"`
	Contact     string  `json:"contact"`
	Product     string  `json:"product"`
	Category    string  `json:"category"`
	Pincode     string  `json:"pincode"`
	MinOrderQty float64 `json:"min_order_qty"`
	Description string  `json:"description,omitempty"`
}

// EmbedText is the text a supplier entry is embedded under.
func (s Supplier) EmbedText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Product, s.Category, s.Description} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

func (s Supplier) payload() map[string]any {
	return map[string]any{
		"name":          s.Name,
		"contact":       s.Contact,
		"product":       s.Product,
		"category":      s.Category,
		"pincode":       s.Pincode,
		"min_order_qty": s.MinOrderQty,
		"description":   s.Description,
	}
}

func supplierFromPayload(payload map[string]any) Supplier {
	return Supplier{
		Name:        payloadString(payload, "name"),
		Contact:     payloadString(payload, "contact"),
		Product:     payloadString(payload, "product"),
		Category:    payloadString(payload, "category"),
		Pincode:     payloadString(payload, "pincode"),
		MinOrderQty: payloadFloat(payload, "min_order_qty"),
		Description: payloadString(payload, "description"),
	}
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}
