package models

// Loan lifecycle statuses.
const (
	LoanRequested = "requested"
	LoanIssued    = "issued"
	LoanReturned  = "returned"
)

// BorrowedBook is one row of the user's borrowing history, with due-date
// bookkeeping derived client-side (due = issued + loan duration).
type BorrowedBook struct {
	ID            string
	BookName      string
	RequestedOn   string
	IssuedOn      string
	ReturnedOn    string
	DueDate       string
	DaysRemaining int
	Overdue       bool
	Status        string
}

// RequestedBook is one row of the user's pending reservation requests.
type RequestedBook struct {
	ID          string
	BookName    string
	RequestedOn string
	IssuedOn    string
	ReturnedOn  string
}
