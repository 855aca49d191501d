package storage

import (
	"fmt"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

const documentVersion = 1

// ContactRecord is the JSON shape of a contact on disk, in etcd and over HTTP.
type ContactRecord struct {
	Name     string   `json:"name"`
	Phones   []string `json:"phones"`
	Birthday string   `json:"birthday,omitempty"`
}

type document struct {
	Version  int             `json:"version"`
	Contacts []ContactRecord `json:"contacts"`
}

type etcdContact struct {
	ContactRecord
	Position int `json:"position"`
}

func FromRecord(r *domain.Record) ContactRecord {
	c := ContactRecord{
		Name:   r.Name.String(),
		Phones: r.PhoneStrings(),
	}
	if r.Birthday != nil {
		c.Birthday = r.Birthday.String()
	}
	return c
}

// ToRecord validates every field again; stored data is not trusted.
func (c ContactRecord) ToRecord() (*domain.Record, error) {
	r, err := domain.NewRecord(c.Name)
	if err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	for _, p := range c.Phones {
		if err := r.AddPhone(p); err != nil {
			return nil, fmt.Errorf("decode contact %s: %w", c.Name, err)
		}
	}
	if c.Birthday != "" {
		if err := r.SetBirthday(c.Birthday); err != nil {
			return nil, fmt.Errorf("decode contact %s: %w", c.Name, err)
		}
	}
	return r, nil
}

func toDocument(book *domain.AddressBook) document {
	records := book.Records()
	doc := document{Version: documentVersion, Contacts: make([]ContactRecord, 0, len(records))}
	for _, r := range records {
		doc.Contacts = append(doc.Contacts, FromRecord(r))
	}
	return doc
}

func fromContacts(contacts []ContactRecord) (*domain.AddressBook, error) {
	book := domain.NewAddressBook()
	for _, c := range contacts {
		r, err := c.ToRecord()
		if err != nil {
			return nil, err
		}
		book.Add(r)
	}
	return book, nil
}
