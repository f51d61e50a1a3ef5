package model

type Customer struct {
	ID    int64  `db:"customer_id" json:"customer_id"`
	Name  string `db:"name"        json:"name"`
	Email string `db:"email"       json:"email"`
}
