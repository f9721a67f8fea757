package sheets

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress is returned when a range cannot be built from the given coordinates.
// It signals an internal consistency problem, not a user-facing condition.
var ErrInvalidAddress = errors.New("invalid range address")

// MaxColumn is the last column ColumnLetter can name. Multi-letter columns (AA, AB, ...)
// are not produced.
const MaxColumn = 26

// RangeAddress is a start cell and an optional end cell, both 1-based (column A = 1).
// A zero end coordinate means "absent"; if one end coordinate is set, both must be.
type RangeAddress struct {
	StartColumn int
	StartRow    int
	EndColumn   int
	EndRow      int
}

// Cell returns the address of a single cell.
func Cell(column, row int) RangeAddress {
	return RangeAddress{StartColumn: column, StartRow: row}
}

// Span returns the address of a rectangular range.
func Span(startColumn, startRow, endColumn, endRow int) RangeAddress {
	return RangeAddress{StartColumn: startColumn, StartRow: startRow, EndColumn: endColumn, EndRow: endRow}
}

// IsSingleCell reports whether the address has no end coordinates.
func (a RangeAddress) IsSingleCell() bool {
	return a.EndColumn == 0 && a.EndRow == 0
}

// ColumnLetter converts a 1-based column index to its spreadsheet letter (1 -> A, 26 -> Z).
func ColumnLetter(index int) (string, error) {
	if index < 1 || index > MaxColumn {
		return "", fmt.Errorf("%w: column %d out of range 1..%d", ErrInvalidAddress, index, MaxColumn)
	}
	return string(rune('A' + index - 1)), nil
}

// BuildRange renders an A1-style range such as "Clients!D5" or "Clients!D5:E5".
func BuildRange(sheetName string, addr RangeAddress) (string, error) {
	if (addr.EndColumn == 0) != (addr.EndRow == 0) {
		return "", fmt.Errorf("%w: end column and end row must both be set", ErrInvalidAddress)
	}

	start, err := cellRef(addr.StartColumn, addr.StartRow)
	if err != nil {
		return "", err
	}
	if addr.IsSingleCell() {
		return fmt.Sprintf("%s!%s", sheetName, start), nil
	}

	end, err := cellRef(addr.EndColumn, addr.EndRow)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", sheetName, start, end), nil
}

// DataRowForRosterIndex maps a 0-based roster position to its 1-based sheet row,
// skipping headerRowCount header rows.
func DataRowForRosterIndex(i, headerRowCount int) int {
	return i + headerRowCount + 1
}

func cellRef(column, row int) (string, error) {
	letter, err := ColumnLetter(column)
	if err != nil {
		return "", err
	}
	if row < 1 {
		return "", fmt.Errorf("%w: row %d must be positive", ErrInvalidAddress, row)
	}
	return fmt.Sprintf("%s%d", letter, row), nil
}
