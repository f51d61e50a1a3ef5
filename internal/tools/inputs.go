package tools

type AddCustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CustomerIDInput struct {
	CustomerID int64 `json:"customer_id"`
}

type EmailInput struct {
	Email string `json:"email"`
}

type LogMessageInput struct {
	CustomerID int64  `json:"customer_id"`
	Direction  string `json:"direction"`
	Content    string `json:"content"`
}

type NoInput struct{}

type ThresholdInput struct {
	ThresholdISO string `json:"threshold_iso"`
}

type QueryTableInput struct {
	Table string `json:"table"`
	SQL   string `json:"sql"`
}
