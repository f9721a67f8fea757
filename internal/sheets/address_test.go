package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for c := 1; c <= MaxColumn; c++ {
		got, err := ColumnLetter(c)
		require.NoError(t, err)
		assert.Equal(t, string(alphabet[c-1]), got, "column %d", c)
	}
}

func TestColumnLetter_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, c := range []int{-1, 0, 27, 100} {
		_, err := ColumnLetter(c)
		assert.ErrorIs(t, err, ErrInvalidAddress, "column %d", c)
	}
}

func TestBuildRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr RangeAddress
		want string
	}{
		{name: "single cell", addr: Cell(1, 1), want: "Clients!A1"},
		{name: "status columns of row 5", addr: Span(4, 5, 5, 5), want: "Clients!D5:E5"},
		{name: "bounding range", addr: Span(1, 1, 26, 1000), want: "Clients!A1:Z1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildRange("Clients", tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRange_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr RangeAddress
	}{
		{name: "end column without end row", addr: RangeAddress{StartColumn: 4, StartRow: 5, EndColumn: 5}},
		{name: "end row without end column", addr: RangeAddress{StartColumn: 4, StartRow: 5, EndRow: 5}},
		{name: "zero start row", addr: Cell(4, 0)},
		{name: "column past Z", addr: Span(1, 1, 27, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := BuildRange("Clients", tt.addr)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestDataRowForRosterIndex(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		for h := 0; h < 4; h++ {
			assert.Equal(t, i+h+1, DataRowForRosterIndex(i, h))
		}
	}
	assert.Equal(t, 5, DataRowForRosterIndex(3, 1))
}
