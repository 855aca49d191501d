package domain

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrContactNotFound is returned by AddressBook operations that target a missing name.
var ErrContactNotFound = errors.New("contact not found")

// AddressBook stores records by name. It is safe for concurrent use; records
// handed out by Find and Records are copies.
type AddressBook struct {
	mu      sync.RWMutex
	records map[Name]*Record
	order   []Name
}

func NewAddressBook() *AddressBook {
	return &AddressBook{
		records: make(map[Name]*Record),
	}
}

// Add inserts record, replacing any record with the same name.
func (b *AddressBook) Add(record *Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.records[record.Name]; !exists {
		b.order = append(b.order, record.Name)
	}
	b.records[record.Name] = record
}

func (b *AddressBook) Find(name string) (*Record, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.records[Name(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Update runs fn against the stored record under the write lock. The record
// is left unchanged when fn fails.
func (b *AddressBook) Update(name string, fn func(*Record) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.records[Name(strings.TrimSpace(name))]
	if !ok {
		return ErrContactNotFound
	}
	working := r.Clone()
	if err := fn(working); err != nil {
		return err
	}
	*r = *working
	return nil
}

func (b *AddressBook) Delete(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := Name(strings.TrimSpace(name))
	if _, ok := b.records[n]; !ok {
		return false
	}
	delete(b.records, n)
	for i, o := range b.order {
		if o == n {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Records returns copies of every record in insertion order.
func (b *AddressBook) Records() []*Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Record, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.records[n].Clone())
	}
	return out
}

func (b *AddressBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

func (b *AddressBook) String() string {
	lines := make([]string, 0, b.Len())
	for _, r := range b.Records() {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// Congratulation is a contact whose birthday falls in the upcoming window.
type Congratulation struct {
	Name Name
	Date time.Time
}

func (c Congratulation) CongratulationDate() string {
	return c.Date.Format(CongratulationLayout)
}

// UpcomingBirthdays lists the contacts whose next birthday is between today
// and today+window days inclusive. A birthday on a weekend is congratulated
// on the following Monday. Results are ordered by date, then name.
func (b *AddressBook) UpcomingBirthdays(today time.Time, window int) []Congratulation {
	loc := today.Location()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	var out []Congratulation
	for _, r := range b.Records() {
		if r.Birthday == nil {
			continue
		}
		next := r.Birthday.In(day.Year(), loc)
		if next.Before(day) {
			next = r.Birthday.In(day.Year()+1, loc)
		}
		days := int(math.Round(next.Sub(day).Hours() / 24))
		if days < 0 || days > window {
			continue
		}
		switch next.Weekday() {
		case time.Saturday:
			next = next.AddDate(0, 0, 2)
		case time.Sunday:
			next = next.AddDate(0, 0, 1)
		}
		out = append(out, Congratulation{Name: r.Name, Date: next})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
