package roster

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // roster zones must resolve on hosts without a zoneinfo database
)

// DateLayout is the dd/M/yyyy HH:mm:ss format of the last-sent column.
const DateLayout = "02/1/2006 15:04:05"

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "America/New_York"

// Decoder converts raw sheet rows into clients. Dates are read and written in Location,
// never in the process's local zone.
type Decoder struct {
	Location *time.Location
}

// NewDecoder returns a Decoder for the named IANA zone.
func NewDecoder(timezone string) (*Decoder, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("roster: unknown timezone %q: %w", timezone, err)
	}
	return &Decoder{Location: loc}, nil
}

// Decode maps each row to a Client. It never fails: short rows, blank cells and
// unparseable dates decode to empty or nil fields. Header rows must already be removed.
func (d *Decoder) Decode(rows [][]string) []Client {
	clients := make([]Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, d.decodeRow(row))
	}
	return clients
}

// Encode is the inverse of Decode.
func (d *Decoder) Encode(clients []Client) [][]string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		row := make([]string, Width)
		row[ColumnID.index()] = c.ID
		row[ColumnName.index()] = c.Name
		row[ColumnEmail.index()] = c.Email
		if c.LastEmailSentDate != nil {
			row[ColumnLastEmailSentDate.index()] = d.FormatTimestamp(*c.LastEmailSentDate)
		}
		if c.LastEmailSentStatus != nil {
			row[ColumnLastEmailSentStatus.index()] = string(*c.LastEmailSentStatus)
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatTimestamp renders t in the decoder's zone using DateLayout.
func (d *Decoder) FormatTimestamp(t time.Time) string {
	return t.In(d.Location).Format(DateLayout)
}

func (d *Decoder) decodeRow(row []string) Client {
	return Client{
		ID:                  cell(row, ColumnID),
		Name:                cell(row, ColumnName),
		Email:               cell(row, ColumnEmail),
		LastEmailSentDate:   d.parseDate(cell(row, ColumnLastEmailSentDate)),
		LastEmailSentStatus: parseStatus(cell(row, ColumnLastEmailSentStatus)),
	}
}

func (d *Decoder) parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, s, d.Location)
	if err != nil {
		return nil
	}
	return &t
}

func parseStatus(s string) *EmailStatus {
	if s == "" {
		return nil
	}
	status := StatusSent
	if s == string(StatusOpened) {
		status = StatusOpened
	}
	return &status
}

func cell(row []string, c Column) string {
	if c.index() >= len(row) {
		return ""
	}
	return row[c.index()]
}
