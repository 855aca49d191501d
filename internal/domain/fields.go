package domain

import (
	"strings"
	"time"
)

const (
	phoneLength = 10

	// BirthdayLayout is the accepted input and display format of a birthday.
	BirthdayLayout = "02.01.2006"
	// CongratulationLayout formats the day a contact should be congratulated.
	CongratulationLayout = "2006.01.02"
)

type Name string

func NewName(raw string) (Name, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewValidationError("name", raw, "must not be empty")
	}
	return Name(name), nil
}

func (n Name) String() string { return string(n) }

// Phone is a ten digit phone number.
type Phone string

func NewPhone(raw string) (Phone, error) {
	if len(raw) != phoneLength {
		return "", NewValidationError("phone", raw, "must contain exactly 10 digits")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", NewValidationError("phone", raw, "must contain exactly 10 digits")
		}
	}
	return Phone(raw), nil
}

func (p Phone) String() string { return string(p) }

// Birthday is a calendar date with no time-of-day component.
type Birthday struct {
	time.Time
}

func NewBirthday(raw string) (Birthday, error) {
	t, err := time.Parse(BirthdayLayout, raw)
	if err != nil {
		return Birthday{}, NewValidationError("birthday", raw, "invalid date format, use DD.MM.YYYY")
	}
	return Birthday{Time: t}, nil
}

func (b Birthday) String() string { return b.Format(BirthdayLayout) }

// In returns the birthday's anniversary in year. 29 February falls on
// 28 February in non-leap years.
func (b Birthday) In(year int, loc *time.Location) time.Time {
	month, day := b.Month(), b.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
