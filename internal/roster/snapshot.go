package roster

import "github.com/clientmailer/clientmailer/internal/sheets"

// Snapshot is the roster as read at one point in time. Clients[i] lives on sheet row
// RowOf(i); edits to the sheet after the read invalidate that mapping.
type Snapshot struct {
	Clients    []Client
	HeaderRows int
}

// NewSnapshot drops the header rows from a raw grid and decodes the rest.
func (d *Decoder) NewSnapshot(rows [][]string, headerRows int) *Snapshot {
	if headerRows < 0 {
		headerRows = 0
	}
	if headerRows > len(rows) {
		headerRows = len(rows)
	}
	return &Snapshot{
		Clients:    d.Decode(rows[headerRows:]),
		HeaderRows: headerRows,
	}
}

// IndexOf returns the position of the first client whose email equals email exactly,
// or -1.
func (s *Snapshot) IndexOf(email string) int {
	for i, c := range s.Clients {
		if c.Email == email {
			return i
		}
	}
	return -1
}

// RowOf returns the 1-based sheet row of the client at position i.
func (s *Snapshot) RowOf(i int) int {
	return sheets.DataRowForRosterIndex(i, s.HeaderRows)
}

// Lookup returns the client with the given email and its sheet row.
func (s *Snapshot) Lookup(email string) (Client, int, bool) {
	i := s.IndexOf(email)
	if i < 0 {
		return Client{}, 0, false
	}
	return s.Clients[i], s.RowOf(i), true
}

// Duplicates lists emails that appear on more than one row, in order of first repeat.
func (s *Snapshot) Duplicates() []string {
	seen := make(map[string]int, len(s.Clients))
	var dups []string
	for _, c := range s.Clients {
		if c.Email == "" {
			continue
		}
		seen[c.Email]++
		if seen[c.Email] == 2 {
			dups = append(dups, c.Email)
		}
	}
	return dups
}
