package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/vendorlink/vendorlink/internal/catalog"
)

const (
	// MaxCandidates bounds every search result.
	MaxCandidates = 5

	indexTopK       = 1000
	fallbackQuery   = "wholesale products"
	regionPrefixLen = 2
)

// Embedder turns the query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, input string) ([]float32, error)
}

// Index answers filtered nearest-neighbour queries over the supplier catalog.
type Index interface {
	Query(ctx context.Context, vector []float32, limit int, filters map[string]any) ([]catalog.Supplier, []float64, error)
}

// Engine converts a Request into a ranked, bounded list of Candidates.
type Engine struct {
	embedder Embedder
	index    Index
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(log *slog.Logger, embedder Embedder, index Index) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		index:    index,
		logger:   log.With(slog.String("service", "match")),
	}
}

// Search returns at most MaxCandidates suppliers for the request, ordered by
// the active proximity policy. An embedding failure is returned as an error;
// an index failure degrades to an empty result.
func (e *Engine) Search(ctx context.Context, req Request) ([]Candidate, error) {
	query := strings.TrimSpace(req.ProductName)
	if query == "" {
		query = fallbackQuery
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	suppliers, scores, err := e.index.Query(ctx, vector, indexTopK, buildFilters(req))
	if err != nil {
		e.logger.Warn("index query failed, returning no matches", slog.Any("error", err))
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(suppliers))
	needle := strings.ToLower(strings.TrimSpace(req.ProductName))
	for i, supplier := range suppliers {
		if needle != "" && !strings.Contains(strings.ToLower(supplier.Product), needle) {
			continue
		}
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}
		candidates = append(candidates, Candidate{
			Address:     supplier.Contact,
			Name:        supplier.Name,
			Score:       score,
			Product:     supplier.Product,
			Category:    supplier.Category,
			Pincode:     supplier.Pincode,
			MinOrderQty: supplier.MinOrderQty,
		})
	}

	return applyProximity(req, candidates), nil
}

func buildFilters(req Request) map[string]any {
	filters := map[string]any{}
	if strings.TrimSpace(req.Category) != "" {
		filters["category"] = strings.TrimSpace(req.Category)
	}
	if req.Quantity != nil {
		filters["min_order_qty"] = map[string]any{"lte": *req.Quantity}
	}
	return filters
}

func applyProximity(req Request, candidates []Candidate) []Candidate {
	if req.Pincode == "" || req.Proximity == ProximityNone {
		return capCandidates(candidates)
	}

	switch req.Proximity {
	case ProximitySame:
		if len(req.Pincode) < regionPrefixLen {
			return capCandidates(candidates)
		}
		prefix := req.Pincode[:regionPrefixLen]
		kept := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if len(c.Pincode) >= regionPrefixLen && c.Pincode[:regionPrefixLen] == prefix {
				kept = append(kept, c)
			}
		}
		return capCandidates(kept)

	case ProximityPan:
		origin, err := strconv.Atoi(req.Pincode)
		if err != nil {
			return capCandidates(candidates)
		}
		// Candidates with unparsable pincodes cannot be ranked by distance
		// and are excluded rather than given a sentinel position.
		type ranked struct {
			c    Candidate
			dist int
		}
		kept := make([]ranked, 0, len(candidates))
		for _, c := range candidates {
			code, err := strconv.Atoi(c.Pincode)
			if err != nil {
				continue
			}
			dist := code - origin
			if dist < 0 {
				dist = -dist
			}
			kept = append(kept, ranked{c: c, dist: dist})
		}
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].dist < kept[j].dist })
		result := make([]Candidate, 0, len(kept))
		for _, r := range kept {
			result = append(result, r.c)
		}
		return capCandidates(result)
	}

	return capCandidates(candidates)
}

func capCandidates(candidates []Candidate) []Candidate {
	if len(candidates) > MaxCandidates {
		return candidates[:MaxCandidates]
	}
	return candidates
}
