// Package match ranks catalog suppliers against a structured buyer request.
package match

// Proximity is the buyer's geographic preference for matches.
type Proximity string

// Proximity values: unset, same region (2-digit pincode prefix), or
// nationwide ranked by numeric pincode distance.
const (
	ProximityNone Proximity = ""
	ProximitySame Proximity = "same"
	ProximityPan  Proximity = "pan"
)

// Request is the structured query accumulated across conversation turns.
// Every field is optional; the zero Request still yields a default search.
type Request struct {
	ProductName string
	Category    string
	Quantity    *float64 // matches suppliers with min order qty <= Quantity
	Pincode     string   // 6-digit postal code
	Proximity   Proximity
}

// Candidate is one supplier match. Candidates are transient: produced per
// search, never persisted.
type Candidate struct {
	Address     string
	Name        string
	Score       float64
	Product     string
	Category    string
	Pincode     string
	MinOrderQty float64
}
