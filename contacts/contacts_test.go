package contacts_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theidealshukla/ColdMailBot-api/contacts"
	"github.com/theidealshukla/ColdMailBot-api/models"
)

func TestFromCSVHappyPath(t *testing.T) {
	csv := strings.Join([]string{
		"name,email,company",
		"Sam Smith,SAM@Acme.com,Acme",
		"Ada Lovelace,ada@initech.io,Initech",
	}, "\n")

	list, err := contacts.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, models.Contact{Name: "Sam Smith", Email: "sam@acme.com", Company: "Acme"}, list[0])
	assert.Equal(t, models.Contact{Name: "Ada Lovelace", Email: "ada@initech.io", Company: "Initech"}, list[1])
}

func TestFromCSVHeaderOrderAndExtraColumns(t *testing.T) {
	csv := strings.Join([]string{
		"company,notes,email,name",
		"Acme,call later,sam@acme.com,Sam",
	}, "\n")

	list, err := contacts.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.Contact{Name: "Sam", Email: "sam@acme.com", Company: "Acme"}, list[0])
}

func TestFromCSVSkipsEmptyRows(t *testing.T) {
	csv := "name,email,company\nSam,sam@acme.com,Acme\n,,\n\nAda,ada@initech.io,Initech\n"

	list, err := contacts.FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFromCSVMissingHeaderColumn(t *testing.T) {
	_, err := contacts.FromCSV(strings.NewReader("name,email\nSam,sam@acme.com"))
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "company")
}

func TestFromCSVEmptyInput(t *testing.T) {
	_, err := contacts.FromCSV(strings.NewReader(""))
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = contacts.FromCSV(strings.NewReader("name,email,company\n"))
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestFromCSVRejectsWholeBatchOnMissingField(t *testing.T) {
	csv := strings.Join([]string{
		"name,email,company",
		"Sam,sam@acme.com,Acme",
		"Ada,ada@initech.io,",
	}, "\n")

	list, err := contacts.FromCSV(strings.NewReader(csv))
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, list)
	assert.Contains(t, err.Error(), "missing company")
}

func TestFromCSVRejectsWholeBatchOnBadEmail(t *testing.T) {
	csv := strings.Join([]string{
		"name,email,company",
		"Sam,sam@acme.com,Acme",
		"Ada,not-an-email,Initech",
		"Eve,eve@initech.io,Initech",
	}, "\n")

	list, err := contacts.FromCSV(strings.NewReader(csv))
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, list)
	assert.Contains(t, err.Error(), "not-an-email")
}

func TestFromJSON(t *testing.T) {
	list, err := contacts.FromJSON([]contacts.ContactInput{
		{Name: " Sam ", Email: " SAM@acme.com ", Company: " Acme "},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.Contact{Name: "Sam", Email: "sam@acme.com", Company: "Acme"}, list[0])
}

func TestFromJSONRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name  string
		input contacts.ContactInput
	}{
		{"missing name", contacts.ContactInput{Email: "a@b.co", Company: "Acme"}},
		{"missing email", contacts.ContactInput{Name: "Sam", Company: "Acme"}},
		{"missing company", contacts.ContactInput{Name: "Sam", Email: "a@b.co"}},
		{"no tld", contacts.ContactInput{Name: "Sam", Email: "a@b", Company: "Acme"}},
		{"whitespace in email", contacts.ContactInput{Name: "Sam", Email: "a b@c.co", Company: "Acme"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := contacts.FromJSON([]contacts.ContactInput{tc.input})
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}

	_, err := contacts.FromJSON(nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCheckLimit(t *testing.T) {
	assert.NoError(t, contacts.CheckLimit(50, 50))
	assert.NoError(t, contacts.CheckLimit(10, 0)) // zero disables the cap

	err := contacts.CheckLimit(51, 50)
	require.ErrorIs(t, err, models.ErrLimitExceeded)
	assert.Contains(t, err.Error(), "51")
}
