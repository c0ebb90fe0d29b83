package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildQdrantFilter(t *testing.T) {
	t.Parallel()

	filter := buildQdrantFilter(map[string]any{
		"category":      "chemicals",
		"min_order_qty": map[string]any{"lte": 100.0},
	})
	if filter == nil {
		t.Fatalf("expected filter")
	}
	if len(filter.Must) != 2 {
		t.Fatalf("expected two conditions, got %d", len(filter.Must))
	}
}

func TestBuildQdrantFilterEmpty(t *testing.T) {
	t.Parallel()

	if buildQdrantFilter(nil) != nil {
		t.Fatalf("expected nil filter for no conditions")
	}
	if buildQdrantFilter(map[string]any{"moq": map[string]any{"near": 5}}) != nil {
		t.Fatalf("expected nil filter for unusable range")
	}
}

func TestSupplierPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	s := Supplier{
		Name:        "Vadodara Chem",
		Contact:     "+911112223334",
		Product:     "Sodium Hydroxide",
		Category:    "chemicals",
		Pincode:     "390013",
		MinOrderQty: 50,
	}
	got := supplierFromPayload(s.payload())
	if got != s {
		t.Fatalf("round trip mismatch: %+v != %+v", got, s)
	}
}

func TestLoadFileSkipsUnusableEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "suppliers.json")
	body := `[
  {"name":"A","contact":"+911","product":"Sodium Chloride","pincode":"390001"},
  {"name":"no contact","product":"Copper Wire"},
  {"name":"no product","contact":"+913"}
]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	suppliers, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(suppliers) != 1 {
		t.Fatalf("expected 1 usable supplier, got %d", len(suppliers))
	}
	if suppliers[0].Name != "A" {
		t.Fatalf("unexpected supplier %+v", suppliers[0])
	}
}

func TestEmbedText(t *testing.T) {
	t.Parallel()

	s := Supplier{Product: "Steel Pipes", Category: "metals", Description: " ISI grade "}
	if got := s.EmbedText(); got != "Steel Pipes metals ISI grade" {
		t.Fatalf("unexpected embed text %q", got)
	}
}
