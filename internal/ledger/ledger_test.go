package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 3, Available: 3}, c)

	_, err = New(-1)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTransitions(t *testing.T) {
	start := Counts{Total: 2, Available: 2}

	reserved, err := start.ReserveOneCopy()
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 2, Available: 1, Reserved: 1}, reserved)

	issued, err := reserved.ConvertReservationToIssue()
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 2, Available: 1, Issued: 1}, issued)

	returned, err := issued.ReturnCopy()
	require.NoError(t, err)
	assert.Equal(t, start, returned)

	released, err := reserved.ReleaseReservation()
	require.NoError(t, err)
	assert.Equal(t, start, released)

	// The receiver is never modified.
	assert.Equal(t, Counts{Total: 2, Available: 2}, start)
}

func TestFailures(t *testing.T) {
	empty := Counts{Total: 1, Issued: 1}

	testCases := []struct {
		name    string
		op      func(Counts) (Counts, error)
		wantErr error
	}{
		{name: "reserve with nothing available", op: Counts.ReserveOneCopy, wantErr: ErrNoCopiesAvailable},
		{name: "release with nothing reserved", op: Counts.ReleaseReservation, wantErr: ErrInvariantViolation},
		{name: "issue with nothing reserved", op: Counts.ConvertReservationToIssue, wantErr: ErrInvariantViolation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(empty)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, empty, got)
		})
	}

	_, err := Counts{Total: 1, Available: 1}.ReturnCopy()
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCorruptCountsAreRejected(t *testing.T) {
	corrupt := Counts{Total: 5, Available: 1, Reserved: 1}
	got, err := corrupt.ReserveOneCopy()
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, corrupt, got)
}

func TestAddCopiesAndArchive(t *testing.T) {
	c := Counts{Total: 1, Reserved: 1}
	assert.False(t, c.CanArchive())

	grown, err := c.AddCopies(2)
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 3, Available: 2, Reserved: 1}, grown)

	_, err = c.AddCopies(0)
	assert.Error(t, err)

	assert.True(t, Counts{Total: 4, Available: 4}.CanArchive())
}

func TestRandomSequencesPreserveInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ops := []func(Counts) (Counts, error){
		Counts.ReserveOneCopy,
		Counts.ReleaseReservation,
		Counts.ConvertReservationToIssue,
		Counts.ReturnCopy,
	}

	c, err := New(4)
	require.NoError(t, err)
	for i := 0; i < 5000; i++ {
		next, _ := ops[rng.Intn(len(ops))](c)
		require.NoError(t, next.Validate(), "step %d: %s", i, next)
		c = next
	}
}
