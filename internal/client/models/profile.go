package models

// UserProfile combines the upstream account record with client-side
// borrowing counters.
type UserProfile struct {
	UID                 string
	UUID                string
	Name                string
	Email               string
	Timezone            string
	Created             string
	Changed             string
	BorrowedBooksCount  int
	RequestedBooksCount int
	Credits             int
	MaxCredits          int
	MaxBooksAllowed     int
	CanBorrowMore       bool
}

// Eligibility is the result of the client-side borrow-limit check performed
// before a reservation is attempted.
type Eligibility struct {
	CanBorrow    bool
	CurrentBooks int
	MaxBooks     int
	Message      string
}

// Reservation describes a successfully placed book request.
type Reservation struct {
	ID         string
	BookID     string
	BookTitle  string
	ReservedAt string
	Status     string
}
