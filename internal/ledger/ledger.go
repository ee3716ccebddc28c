// Package ledger holds the per-title copy counts and the arithmetic that
// moves copies between the available, reserved and issued buckets.
//
// Every operation works on a value and returns the next value, so a caller
// that fails half way through a unit of work never has a partially mutated
// ledger to undo.
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCopiesAvailable is returned when a reservation is attempted with
	// zero available copies.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrInvariantViolation signals counts that would go negative or stop
	// summing to the total. It always indicates a bug.
	ErrInvariantViolation = errors.New("inventory invariant violation")
)

// Counts is the inventory of one title.
type Counts struct {
	Total     int `json:"totalCount"`
	Available int `json:"availableCount"`
	Reserved  int `json:"reservedCount"`
	Issued    int `json:"issuedCount"`
}

// New returns the counts of a freshly catalogued title with n copies.
func New(n int) (Counts, error) {
	c := Counts{Total: n, Available: n}
	return c, c.Validate()
}

// Validate checks total == available + reserved + issued and that no bucket
// is negative.
func (c Counts) Validate() error {
	if c.Total < 0 || c.Available < 0 || c.Reserved < 0 || c.Issued < 0 {
		return fmt.Errorf("%w: negative count in %s", ErrInvariantViolation, c)
	}
	if c.Total != c.Available+c.Reserved+c.Issued {
		return fmt.Errorf("%w: %s does not sum to total", ErrInvariantViolation, c)
	}
	return nil
}

func (c Counts) String() string {
	return fmt.Sprintf("total=%d available=%d reserved=%d issued=%d", c.Total, c.Available, c.Reserved, c.Issued)
}

// ReserveOneCopy moves one copy from available to reserved.
func (c Counts) ReserveOneCopy() (Counts, error) {
	if c.Available == 0 {
		return c, ErrNoCopiesAvailable
	}
	next := c
	next.Available--
	next.Reserved++
	return next.checked(c)
}

// ReleaseReservation moves one copy from reserved back to available.
func (c Counts) ReleaseReservation() (Counts, error) {
	if c.Reserved == 0 {
		return c, fmt.Errorf("%w: release with no reserved copies (%s)", ErrInvariantViolation, c)
	}
	next := c
	next.Reserved--
	next.Available++
	return next.checked(c)
}

// ConvertReservationToIssue moves one copy from reserved to issued.
func (c Counts) ConvertReservationToIssue() (Counts, error) {
	if c.Reserved == 0 {
		return c, fmt.Errorf("%w: issue with no reserved copies (%s)", ErrInvariantViolation, c)
	}
	next := c
	next.Reserved--
	next.Issued++
	return next.checked(c)
}

// ReturnCopy moves one copy from issued back to available.
func (c Counts) ReturnCopy() (Counts, error) {
	if c.Issued == 0 {
		return c, fmt.Errorf("%w: return with no issued copies (%s)", ErrInvariantViolation, c)
	}
	next := c
	next.Issued--
	next.Available++
	return next.checked(c)
}

// AddCopies grows the title by n copies, all of them available.
func (c Counts) AddCopies(n int) (Counts, error) {
	if n <= 0 {
		return c, fmt.Errorf("copies to add must be positive, got %d", n)
	}
	next := c
	next.Total += n
	next.Available += n
	return next.checked(c)
}

// CanArchive reports whether no copy is reserved or issued.
func (c Counts) CanArchive() bool {
	return c.Reserved == 0 && c.Issued == 0
}

// checked returns c if it satisfies the invariant and prev otherwise.
func (c Counts) checked(prev Counts) (Counts, error) {
	if err := c.Validate(); err != nil {
		return prev, err
	}
	return c, nil
}
