// Package importer turns tokenized stock-count exports into normalized
// stock rows.
package importer

import (
	"strings"

	"github.com/cleared-dev/stockval/internal/model"
)

// Parser converts the rows of one export format into StockRows. Row 0 is
// the header. Rows that cannot contribute stock are dropped and counted in
// the returned Diagnostics; Parse never fails on row content.
type Parser interface {
	Parse(rows [][]string) ([]model.StockRow, model.Diagnostics)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&FBAParser{})
	r.Register(&WarehouseParser{})
	return r
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
