package model

// SourceAccount is a bank account tracked by Lunch Flow.
type SourceAccount struct {
	ID          int64
	Name        string
	Institution string
	Currency    string
	Status      string // "active" or "inactive"
}

// DestinationAccount is an account in the Actual budget file.
type DestinationAccount struct {
	ID     string
	Name   string
	Closed bool
}
