package model

import "strings"

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) String() string {
	return string(d)
}

func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// ParseDirection normalizes input. Direction is advisory, so the normalized
// value is returned even when it is not one of the known directions.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// Message is the DB entity persisted in messages table.
type Message struct {
	ID         int64     `db:"message_id"  json:"message_id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	Timestamp  string    `db:"timestamp"   json:"timestamp"`
	Direction  Direction `db:"direction"   json:"direction"`
	Content    string    `db:"content"     json:"content"`
}
