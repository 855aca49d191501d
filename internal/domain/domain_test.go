package domain

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestNewPhone(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{in: "0501234567", valid: true},
		{in: "050123456", valid: false},
		{in: "05012345678", valid: false},
		{in: "050-123456", valid: false},
		{in: "", valid: false},
		{in: "０５０１２３４５６", valid: false},
	}
	for _, tt := range tests {
		_, err := NewPhone(tt.in)
		if tt.valid {
			assert.NilError(t, err, tt.in)
		} else {
			assert.Assert(t, IsValidationError(err), tt.in)
		}
	}
}

func TestNewBirthday(t *testing.T) {
	b, err := NewBirthday("29.02.2000")
	assert.NilError(t, err)
	assert.Equal(t, b.String(), "29.02.2000")

	for _, raw := range []string{"2000-02-29", "31.02.2000", "1.1.2000", ""} {
		_, err := NewBirthday(raw)
		assert.Assert(t, IsValidationError(err), raw)
	}
}

func TestNewNameTrims(t *testing.T) {
	n, err := NewName("  John ")
	assert.NilError(t, err)
	assert.Equal(t, n, Name("John"))

	_, err = NewName("   ")
	assert.Assert(t, IsValidationError(err))
}

func TestRecordPhones(t *testing.T) {
	r, err := NewRecord("John")
	assert.NilError(t, err)
	assert.NilError(t, r.AddPhone("1111111111"))
	assert.NilError(t, r.AddPhone("2222222222"))
	assert.Assert(t, IsValidationError(r.AddPhone("123")))

	assert.NilError(t, r.EditPhone("1111111111", "3333333333"))
	assert.DeepEqual(t, r.PhoneStrings(), []string{"3333333333", "2222222222"})

	err = r.EditPhone("9999999999", "4444444444")
	assert.Assert(t, errors.Is(err, ErrPhoneNotFound))

	err = r.EditPhone("3333333333", "bad")
	assert.Assert(t, IsValidationError(err))
	assert.DeepEqual(t, r.PhoneStrings(), []string{"3333333333", "2222222222"})

	p, ok := r.FindPhone("2222222222")
	assert.Assert(t, ok)
	assert.Equal(t, p, Phone("2222222222"))

	r.RemovePhone("2222222222")
	_, ok = r.FindPhone("2222222222")
	assert.Assert(t, !ok)
}

func TestRecordString(t *testing.T) {
	r, _ := NewRecord("John")
	assert.Equal(t, r.String(), "Contact name: John, phones: , birthday: None")

	assert.NilError(t, r.AddPhone("1234567890"))
	assert.NilError(t, r.AddPhone("0987654321"))
	assert.NilError(t, r.SetBirthday("01.02.1990"))
	assert.Equal(t, r.String(), "Contact name: John, phones: 1234567890;0987654321, birthday: 01.02.1990")
}

func TestAddressBookOrderAndCopies(t *testing.T) {
	book := NewAddressBook()
	for _, n := range []string{"Zed", "Amy", "Bob"} {
		r, _ := NewRecord(n)
		book.Add(r)
	}
	assert.Equal(t, book.Len(), 3)

	names := []Name{}
	for _, r := range book.Records() {
		names = append(names, r.Name)
	}
	assert.DeepEqual(t, names, []Name{"Zed", "Amy", "Bob"})

	found, ok := book.Find("Amy")
	assert.Assert(t, ok)
	assert.NilError(t, found.AddPhone("1234567890"))
	again, _ := book.Find("Amy")
	assert.Assert(t, cmp.Len(again.Phones, 0), "Find must return a copy")

	assert.Assert(t, book.Delete("Zed"))
	assert.Assert(t, !book.Delete("Zed"))
	assert.Equal(t, book.String(), "Contact name: Amy, phones: , birthday: None\nContact name: Bob, phones: , birthday: None")
}

func TestAddressBookUpdate(t *testing.T) {
	book := NewAddressBook()
	r, _ := NewRecord("John")
	assert.NilError(t, r.AddPhone("1234567890"))
	book.Add(r)

	err := book.Update("John", func(r *Record) error { return r.AddPhone("0987654321") })
	assert.NilError(t, err)

	err = book.Update("John", func(r *Record) error {
		r.RemovePhone("1234567890")
		return r.AddPhone("bad")
	})
	assert.Assert(t, IsValidationError(err))

	got, _ := book.Find("John")
	assert.DeepEqual(t, got.PhoneStrings(), []string{"1234567890", "0987654321"})

	err = book.Update("Nobody", func(*Record) error { return nil })
	assert.Assert(t, errors.Is(err, ErrContactNotFound))
}

func bookWithBirthdays(t *testing.T, birthdays map[string]string) *AddressBook {
	t.Helper()
	book := NewAddressBook()
	for name, bday := range birthdays {
		r, err := NewRecord(name)
		assert.NilError(t, err)
		if bday != "" {
			assert.NilError(t, r.SetBirthday(bday))
		}
		book.Add(r)
	}
	return book
}

func render(cs []Congratulation) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name.String()+" "+c.CongratulationDate())
	}
	return out
}

func TestUpcomingBirthdays(t *testing.T) {
	book := bookWithBirthdays(t, map[string]string{
		"Alice": "05.06.1990", // Wednesday
		"Bob":   "08.06.1985", // Saturday
		"Carol": "09.06.2000", // Sunday
		"Dave":  "10.06.1999", // Monday, last day of the window
		"Eve":   "11.06.1999", // outside the window
		"Frank": "01.06.1990", // already passed this year
		"Grace": "03.06.1980", // today
		"Henry": "",
	})
	today := time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC) // Monday

	got := render(book.UpcomingBirthdays(today, 7))
	assert.DeepEqual(t, got, []string{
		"Grace 2024.06.03",
		"Alice 2024.06.05",
		"Bob 2024.06.10",
		"Carol 2024.06.10",
		"Dave 2024.06.10",
	})
}

func TestUpcomingBirthdaysAcrossYearEnd(t *testing.T) {
	book := bookWithBirthdays(t, map[string]string{
		"Ann": "01.01.2000",
		"Ben": "04.01.2000",
	})
	today := time.Date(2024, time.December, 28, 0, 0, 0, 0, time.UTC)

	got := render(book.UpcomingBirthdays(today, 7))
	assert.DeepEqual(t, got, []string{"Ann 2025.01.01", "Ben 2025.01.06"})
}

func TestUpcomingBirthdaysLeapDay(t *testing.T) {
	book := bookWithBirthdays(t, map[string]string{"Leap": "29.02.2000"})
	today := time.Date(2025, time.February, 24, 0, 0, 0, 0, time.UTC)

	got := render(book.UpcomingBirthdays(today, 7))
	assert.DeepEqual(t, got, []string{"Leap 2025.02.28"})
}

func TestUpcomingBirthdaysZeroWindow(t *testing.T) {
	book := bookWithBirthdays(t, map[string]string{"Tom": "04.06.2000"})
	today := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	assert.Assert(t, cmp.Len(book.UpcomingBirthdays(today, 0), 0))
}
