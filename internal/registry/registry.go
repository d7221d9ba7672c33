// Package registry resolves record types and subquery labels to the single
// table descriptor that maps them.
//
// A Registry is built once, validated up front, and read-only afterwards, so
// it can be shared between goroutines without locking.
package registry

import (
	"fmt"

	"github.com/kyleking/schemasync/internal/errors"
	"github.com/kyleking/schemasync/internal/schema"
)

// Key is anything a table can be looked up by: a schema.TypeID, a
// schema.Label, or a *schema.Table.
type Key interface {
	keyKind() string
}

// TypeKey wraps a record type identifier as a lookup key.
type TypeKey schema.TypeID

func (TypeKey) keyKind() string { return "type" }

// LabelKey wraps a subquery label as a lookup key.
type LabelKey schema.Label

func (LabelKey) keyKind() string { return "label" }

// TableKey wraps a descriptor as a lookup key.
type TableKey struct{ Table *schema.Table }

func (TableKey) keyKind() string { return "table" }

// ForType is shorthand for TypeKey(schema.TypeOf[T]()).
func ForType[T any]() Key {
	return TypeKey(schema.TypeOf[T]())
}

// Registry is an immutable set of table descriptors.
type Registry struct {
	tables []*schema.Table
}

// Build validates the descriptors and returns a registry over them.
// Every record type and label in use must resolve to exactly one table. A
// record type mapped by two tables is ambiguous even when their labels
// differ, because a lookup by that type matches both.
func Build(tables ...*schema.Table) (*Registry, error) {
	seen := make(map[*schema.Table]bool, len(tables))
	names := make(map[string]bool, len(tables))

	for i, t := range tables {
		if t == nil {
			return nil, errors.NewConfigError("nil table descriptor", fmt.Sprintf("tables[%d]", i))
		}

		if seen[t] {
			return nil, errors.Newf(errors.ErrTypeAmbiguousMapping,
				"table %q registered more than once", t.Name())
		}

		seen[t] = true

		if !t.IsSubquery() {
			if names[t.Name()] {
				return nil, errors.Newf(errors.ErrTypeAmbiguousMapping,
					"table name %q declared by more than one descriptor", t.Name())
			}

			names[t.Name()] = true
		}
	}

	r := &Registry{tables: append([]*schema.Table(nil), tables...)}

	for _, t := range r.tables {
		for _, key := range identifyingKeys(t) {
			if _, err := r.Resolve(key); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// identifyingKeys returns the keys a descriptor is addressable by.
func identifyingKeys(t *schema.Table) []Key {
	keys := []Key{TableKey{Table: t}}
	if !t.RecordType().IsVoid() {
		keys = append(keys, TypeKey(t.RecordType()))
	}

	if t.Label() != "" {
		keys = append(keys, LabelKey(t.Label()))
	}

	return keys
}

// Resolve returns the one descriptor matching key.
func (r *Registry) Resolve(key Key) (*schema.Table, error) {
	var found []*schema.Table

	for _, t := range r.tables {
		if matches(t, key) {
			found = append(found, t)
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, errors.Newf(errors.ErrTypeNotMapped, "no table mapped for %s", describe(key)).
			WithSuggestion("Declare a table for this key before building the registry")
	default:
		return nil, errors.Newf(errors.ErrTypeAmbiguousMapping, "%d tables mapped for %s: %v",
			len(found), describe(key), tableNames(found)).
			WithSuggestion("Map each record type and each label to a single table")
	}
}

// IsMapped reports whether exactly one descriptor matches key.
func (r *Registry) IsMapped(key Key) bool {
	_, err := r.Resolve(key)
	return err == nil
}

// Tables returns every descriptor in declaration order.
func (r *Registry) Tables() []*schema.Table {
	return append([]*schema.Table(nil), r.tables...)
}

// PhysicalTables returns the descriptors that exist as database tables,
// in declaration order. Subquery results are skipped.
func (r *Registry) PhysicalTables() []*schema.Table {
	var out []*schema.Table
	for _, t := range r.tables {
		if !t.IsSubquery() {
			out = append(out, t)
		}
	}

	return out
}

// Len returns the number of descriptors.
func (r *Registry) Len() int { return len(r.tables) }

// matches applies the identity, record type and label rules.
func matches(t *schema.Table, key Key) bool {
	switch k := key.(type) {
	case TableKey:
		if k.Table == t {
			return true
		}

		return k.Table != nil && labelMatches(t, k.Table.Label())
	case TypeKey:
		return !t.RecordType().IsVoid() && t.RecordType() == schema.TypeID(k)
	case LabelKey:
		return labelMatches(t, schema.Label(k))
	default:
		return false
	}
}

func labelMatches(t *schema.Table, label schema.Label) bool {
	return t.Label() != "" && t.Label() == label
}

func describe(key Key) string {
	switch k := key.(type) {
	case TableKey:
		if k.Table == nil {
			return "table <nil>"
		}

		return fmt.Sprintf("table %q", k.Table.Name())
	case TypeKey:
		return fmt.Sprintf("type %q", string(k))
	case LabelKey:
		return fmt.Sprintf("label %q", string(k))
	default:
		return fmt.Sprintf("%s key", key.keyKind())
	}
}

func tableNames(tables []*schema.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}

	return names
}
