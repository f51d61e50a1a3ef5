package model

import (
	"bytes"
	"encoding/json"
)

// Field is one column of a result row.
type Field struct {
	Column string
	Value  any
}

// Row is a query result row in projection order. It is the boundary between the
// driver's positional values and the generic mapping handed to the agent.
type Row []Field

// NewRow pairs columns with scanned values. Byte slices are returned as strings.
func NewRow(columns []string, values []any) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[i] = Field{Column: col, Value: v}
	}
	return row
}

func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Get returns the value of the last field named col.
func (r Row) Get(col string) (any, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Column == col {
			return r[i].Value, true
		}
	}
	return nil, false
}

// Map flattens the row. Duplicate column names keep the last value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Column] = f.Value
	}
	return m
}

// MarshalJSON encodes the row as an object whose keys follow projection order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Column)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
