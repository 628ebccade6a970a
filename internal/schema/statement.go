package schema

import (
	"fmt"
	"strings"
)

// Placeholders returns one "?" per column, comma separated.
func Placeholders(s *Schema) string {
	return strings.TrimSuffix(strings.Repeat("?,", s.Len()), ",")
}

// Columns returns the column names in declaration order, comma separated.
func Columns(s *Schema) string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return strings.Join(names, ",")
}

// Table returns the column definitions for CREATE TABLE, in declaration
// order: "name TYPE [PRIMARY KEY|UNIQUE] [NOT NULL]".
func Table(s *Schema) string {
	defs := make([]string, len(s.fields))
	for i, f := range s.fields {
		var b strings.Builder
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Column.Codec.SQLType())
		switch f.Column.Tag {
		case TagPrimary:
			b.WriteString(" PRIMARY KEY")
		case TagUnique:
			b.WriteString(" UNIQUE")
		}
		if !f.Column.Nullable {
			b.WriteString(" NOT NULL")
		}
		defs[i] = b.String()
	}
	return strings.Join(defs, ",")
}

// Values serializes m into bind values ordered by column index.
// Absent and nil values become SQL NULL on nullable columns.
func Values(s *Schema, m Model) ([]any, error) {
	out := make([]any, s.Len())
	for _, f := range s.fields {
		v, err := serialize(f, m[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Column.Index] = v
	}
	return out, nil
}

// Update is a generated partial update.
type Update struct {
	// Placeholders is the SET clause body, e.g. "text = ?,type = ?".
	Placeholders string
	// Values holds (field, value) pairs flattened in clause order.
	Values []any
}

// Empty reports whether the update touches no column.
func (u Update) Empty() bool {
	return len(u.Values) == 0
}

// Args returns the bind values for Placeholders, without field names.
func (u Update) Args() []any {
	args := make([]any, 0, len(u.Values)/2)
	for i := 1; i < len(u.Values); i += 2 {
		args = append(args, u.Values[i])
	}
	return args
}

// Updates builds a SET clause for the fields present in partial, in
// declaration order. Keys that are not schema fields are ignored.
func Updates(s *Schema, partial Model) (Update, error) {
	var (
		clauses []string
		values  []any
	)
	for _, f := range s.fields {
		v, ok := partial[f.Name]
		if !ok {
			continue
		}
		ser, err := serialize(f, v)
		if err != nil {
			return Update{}, err
		}
		clauses = append(clauses, f.Name+" = ?")
		values = append(values, f.Name, ser)
	}
	return Update{Placeholders: strings.Join(clauses, ","), Values: values}, nil
}

// RawToModel deserializes a scanned row keyed by column name.
func RawToModel(s *Schema, raw map[string]any) (Model, error) {
	m := make(Model, s.Len())
	for _, f := range s.fields {
		rv, ok := raw[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.Name)
		}
		if rv == nil {
			if !f.Column.Nullable {
				return nil, fmt.Errorf("%w: %s", ErrNullViolation, f.Name)
			}
			m[f.Name] = nil
			continue
		}
		v, err := f.Column.Codec.Deserialize(rv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		m[f.Name] = v
	}
	return m, nil
}

func serialize(f Field, v any) (any, error) {
	var out any
	if v != nil {
		var err error
		out, err = f.Column.Codec.Serialize(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	if out == nil && !f.Column.Nullable {
		return nil, fmt.Errorf("%w: %s", ErrNullViolation, f.Name)
	}
	return out, nil
}
