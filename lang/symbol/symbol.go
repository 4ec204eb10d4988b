// Package symbol interns identifiers into pointer-comparable handles.
package symbol

import (
	"strings"

	"github.com/ardnew/plet/lang/hashmap"
)

// Symbol is an interned name. Two symbols are equal exactly when they were
// returned by the same [Table] for the same name, so == compares identity.
// The zero Symbol is not a valid name.
type Symbol struct {
	name *string
}

// Name returns the interned text, or "" for the zero Symbol.
func (s Symbol) Name() string {
	if s.name == nil {
		return ""
	}

	return *s.name
}

// String implements fmt.Stringer.
func (s Symbol) String() string { return s.Name() }

// IsZero reports whether s is the zero Symbol.
func (s Symbol) IsZero() bool { return s.name == nil }

// Table owns interned names for one session.
type Table struct {
	m *hashmap.Map[string, Symbol]
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		m: hashmap.New[string, Symbol](
			hashmap.String,
			hashmap.Equal[string],
			hashmap.WithCapacity(256),
		),
	}
}

// Intern returns the canonical symbol for name, storing a private copy of
// name on first use.
func (t *Table) Intern(name string) Symbol {
	if s, ok := t.m.Get(name); ok {
		return s
	}

	owned := strings.Clone(name)
	s := Symbol{name: &owned}
	t.m.Add(owned, s)

	return s
}

// Lookup returns the symbol for name without interning it.
func (t *Table) Lookup(name string) (Symbol, bool) {
	return t.m.Get(name)
}

// Len returns the number of interned names.
func (t *Table) Len() int { return t.m.Len() }

// Hash hashes s by name for use as a [hashmap.Map] key.
func Hash(s Symbol) uint64 { return hashmap.String(s.Name()) }
