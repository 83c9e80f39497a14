package model

// DeadLetter records a request that exhausted its retry budget.
type DeadLetter struct {
	Request   Request   `json:"request"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	Timestamp Timestamp `json:"timestamp"`
}
