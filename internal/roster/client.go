package roster

import "time"

// EmailStatus is the delivery state recorded in the status column.
type EmailStatus string

const (
	StatusSent   EmailStatus = "SENT"
	StatusOpened EmailStatus = "OPENED"
)

// Column is a 1-based spreadsheet column of the roster.
type Column int

// Roster column layout. Columns are positional; the header row is ignored.
const (
	ColumnID                  Column = 1
	ColumnName                Column = 2
	ColumnEmail               Column = 3
	ColumnLastEmailSentDate   Column = 4
	ColumnLastEmailSentStatus Column = 5
)

// Width is the number of roster columns.
const Width = int(ColumnLastEmailSentStatus)

// index returns the 0-based cell index of the column inside a row.
func (c Column) index() int {
	return int(c) - 1
}

// Client is one roster row. It is derived on every read and never stored elsewhere.
type Client struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Email               string       `json:"email"`
	LastEmailSentDate   *time.Time   `json:"lastEmailSentDate"`
	LastEmailSentStatus *EmailStatus `json:"lastEmailSentStatus"`
}
