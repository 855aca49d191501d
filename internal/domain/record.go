package domain

import (
	"fmt"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/util"
)

// Record is a single contact: a name, its phone numbers and an optional birthday.
type Record struct {
	Name     Name
	Phones   []Phone
	Birthday *Birthday
}

func NewRecord(name string) (*Record, error) {
	n, err := NewName(name)
	if err != nil {
		return nil, err
	}
	return &Record{Name: n}, nil
}

func (r *Record) AddPhone(raw string) error {
	p, err := NewPhone(raw)
	if err != nil {
		return err
	}
	r.Phones = append(r.Phones, p)
	return nil
}

// RemovePhone drops every occurrence of raw.
func (r *Record) RemovePhone(raw string) {
	r.Phones = util.Filter(r.Phones, func(p Phone) bool { return string(p) != raw })
}

// EditPhone replaces oldRaw with newRaw in place. newRaw is validated before
// anything is removed, so a failed edit leaves the record untouched.
func (r *Record) EditPhone(oldRaw, newRaw string) error {
	if _, ok := r.FindPhone(oldRaw); !ok {
		return ErrPhoneNotFound
	}
	p, err := NewPhone(newRaw)
	if err != nil {
		return err
	}
	for i := range r.Phones {
		if string(r.Phones[i]) == oldRaw {
			r.Phones[i] = p
		}
	}
	return nil
}

func (r *Record) FindPhone(raw string) (Phone, bool) {
	return util.Find(r.Phones, func(p Phone) bool { return string(p) == raw })
}

func (r *Record) SetBirthday(raw string) error {
	b, err := NewBirthday(raw)
	if err != nil {
		return err
	}
	r.Birthday = &b
	return nil
}

func (r *Record) PhoneStrings() []string {
	return util.Map(r.Phones, Phone.String)
}

func (r *Record) BirthdayString() string {
	if r.Birthday == nil {
		return "None"
	}
	return r.Birthday.String()
}

func (r *Record) String() string {
	return fmt.Sprintf("Contact name: %s, phones: %s, birthday: %s",
		r.Name, strings.Join(r.PhoneStrings(), ";"), r.BirthdayString())
}

// Clone returns a deep copy that can be handed out without holding the book's lock.
func (r *Record) Clone() *Record {
	c := &Record{Name: r.Name}
	if r.Phones != nil {
		c.Phones = append([]Phone(nil), r.Phones...)
	}
	if r.Birthday != nil {
		b := *r.Birthday
		c.Birthday = &b
	}
	return c
}
