package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

var (
	// ErrMissingField is returned when a stored row lacks a schema column.
	ErrMissingField = errors.New("missing field")

	// ErrNullViolation is returned when a NOT NULL column receives or
	// yields a null.
	ErrNullViolation = errors.New("null on non-nullable column")

	// ErrInvalidSchema is returned by New for malformed declarations.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Tag is an optional column constraint.
type Tag int

const (
	TagNone Tag = iota
	TagPrimary
	TagUnique
)

// Column describes one stored field.
type Column struct {
	Index    int
	Codec    Codec
	Nullable bool
	Tag      Tag
}

// Col declares a NOT NULL column.
func Col(index int, codec Codec, tag ...Tag) Column {
	return Column{Index: index, Codec: codec, Tag: firstTag(tag)}
}

// ColOptional declares a nullable column.
func ColOptional(index int, codec Codec, tag ...Tag) Column {
	return Column{Index: index, Codec: codec, Nullable: true, Tag: firstTag(tag)}
}

func firstTag(tags []Tag) Tag {
	if len(tags) == 0 {
		return TagNone
	}
	return tags[0]
}

// Field binds a column to its field name.
type Field struct {
	Name   string
	Column Column
}

// F is shorthand for Field{name, col}.
func F(name string, col Column) Field {
	return Field{Name: name, Column: col}
}

// Model maps field names to semantic values. A missing key means "not
// provided"; a key holding nil is an explicit null.
type Model map[string]any

// Schema is an immutable ordered set of fields.
type Schema struct {
	fields  []Field
	byName  map[string]int
	byIndex []int // column index -> position in fields
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New validates fields and returns a Schema. Names must be SQL
// identifiers and unique; indexes must cover exactly 0..len(fields)-1.
func New(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}

	s := &Schema{
		fields:  slices.Clone(fields),
		byName:  make(map[string]int, len(fields)),
		byIndex: make([]int, len(fields)),
	}
	for i := range s.byIndex {
		s.byIndex[i] = -1
	}

	for pos, f := range fields {
		if !identRe.MatchString(f.Name) {
			return nil, fmt.Errorf("%w: bad field name %q", ErrInvalidSchema, f.Name)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		if f.Column.Codec == nil {
			return nil, fmt.Errorf("%w: field %q has no codec", ErrInvalidSchema, f.Name)
		}
		idx := f.Column.Index
		if idx < 0 || idx >= len(fields) {
			return nil, fmt.Errorf("%w: field %q index %d out of range", ErrInvalidSchema, f.Name, idx)
		}
		if s.byIndex[idx] != -1 {
			return nil, fmt.Errorf("%w: index %d used by %q and %q",
				ErrInvalidSchema, idx, fields[s.byIndex[idx]].Name, f.Name)
		}
		s.byName[f.Name] = pos
		s.byIndex[idx] = pos
	}

	return s, nil
}

// MustNew is New that panics on error. Meant for schemas declared in code.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// Lookup returns the column declared for name.
func (s *Schema) Lookup(name string) (Column, bool) {
	pos, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.fields[pos].Column, true
}
