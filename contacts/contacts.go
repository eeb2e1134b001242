// Package contacts normalizes uploaded contact lists into validated Contact
// records. Validation is all-or-nothing: one malformed entry rejects the
// whole batch before any send is attempted.
package contacts

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactInput is one entry of an in-body JSON contact list.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// FromCSV parses a delimited contact list. The header row must contain the
// columns name, email and company (any order, extra columns ignored).
// Fully empty rows are skipped; fields are trimmed and emails lowercased.
func FromCSV(r io.Reader) ([]models.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, models.WrapValidation("contact file is empty")
	}
	if err != nil {
		return nil, models.WrapValidation("unable to read contact file: %v", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "email", "company"} {
		if _, ok := cols[required]; !ok {
			return nil, models.WrapValidation("contact file must contain columns name, email, company; missing %q", required)
		}
	}

	var list []models.Contact
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, models.WrapValidation("row %d: %v", row, err)
		}
		if isEmptyRow(record) {
			continue
		}

		contact := models.Contact{
			Name:    field(record, cols["name"]),
			Email:   strings.ToLower(field(record, cols["email"])),
			Company: field(record, cols["company"]),
		}
		if err := checkContact(contact, row); err != nil {
			return nil, err
		}
		list = append(list, contact)
	}

	if len(list) == 0 {
		return nil, models.WrapValidation("contact file contains no contacts")
	}
	return list, nil
}

// FromJSON normalizes an in-body contact array, applying the same strict
// validation as the CSV path.
func FromJSON(entries []ContactInput) ([]models.Contact, error) {
	if len(entries) == 0 {
		return nil, models.WrapValidation("contact list is empty")
	}

	list := make([]models.Contact, 0, len(entries))
	for i, entry := range entries {
		contact := models.Contact{
			Name:    strings.TrimSpace(entry.Name),
			Email:   strings.ToLower(strings.TrimSpace(entry.Email)),
			Company: strings.TrimSpace(entry.Company),
		}
		if err := checkContact(contact, i+1); err != nil {
			return nil, err
		}
		list = append(list, contact)
	}
	return list, nil
}

// CheckLimit rejects batches larger than limit. A limit of zero or less
// disables the cap.
func CheckLimit(n, limit int) error {
	if limit > 0 && n > limit {
		return models.WrapLimitExceeded("%d contacts exceeds the maximum of %d per campaign", n, limit)
	}
	return nil
}

func checkContact(c models.Contact, position int) error {
	switch {
	case c.Name == "":
		return models.WrapValidation("entry %d: missing name", position)
	case c.Email == "":
		return models.WrapValidation("entry %d: missing email", position)
	case c.Company == "":
		return models.WrapValidation("entry %d: missing company", position)
	case !emailPattern.MatchString(c.Email):
		return models.WrapValidation("entry %d: invalid email format %q", position, c.Email)
	}
	return nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isEmptyRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
