package model

import (
	"encoding/json"
	"testing"
)

func TestNewRowKeepsOrderAndConvertsBytes(t *testing.T) {
	row := NewRow([]string{"name", "customer_id", "email"}, []any{[]byte("Jane"), int64(7), nil})

	cols := row.Columns()
	if len(cols) != 3 || cols[0] != "name" || cols[1] != "customer_id" || cols[2] != "email" {
		t.Fatalf("unexpected columns %v", cols)
	}
	if v, _ := row.Get("name"); v != "Jane" {
		t.Fatalf("expected []byte converted to string, got %#v", v)
	}
	if v, ok := row.Get("email"); !ok || v != nil {
		t.Fatalf("expected nil email, got %#v ok=%v", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatalf("expected missing column lookup to fail")
	}
}

func TestRowMarshalJSONPreservesProjectionOrder(t *testing.T) {
	row := NewRow([]string{"timestamp", "content", "message_id"}, []any{"2024-01-01T00:00:00.000000Z", "hi", int64(1)})

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"timestamp":"2024-01-01T00:00:00.000000Z","content":"hi","message_id":1}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	rows, err := json.Marshal([]Row{row, {}})
	if err != nil {
		t.Fatalf("marshal rows: %v", err)
	}
	if string(rows) != "["+want+",{}]" {
		t.Fatalf("unexpected rows encoding %s", rows)
	}
}

func TestRowMapDuplicateColumnsKeepLast(t *testing.T) {
	row := NewRow([]string{"customer_id", "customer_id"}, []any{int64(1), int64(2)})
	if got := row.Map()["customer_id"]; got != int64(2) {
		t.Fatalf("expected last duplicate to win, got %v", got)
	}
	if v, _ := row.Get("customer_id"); v != int64(2) {
		t.Fatalf("expected Get to agree with Map, got %v", v)
	}
}
