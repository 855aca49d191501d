package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

const (
	maxNameLength     = 10
	maxPhoneLength    = 15
	maxBirthdayLength = 10
	// columns plus the " | " separators and outer borders
	tableWidth = maxNameLength + maxPhoneLength + maxBirthdayLength + 10
)

// Table renders contacts as a fixed-width table. Values longer than their
// column widen the row rather than being cut.
type Table struct{}

func (Table) DisplayContacts(w io.Writer, contacts []*domain.Record) error {
	var sb strings.Builder
	sb.WriteString("Contacts:\n")
	if len(contacts) == 0 {
		sb.WriteString("No contacts found.\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	border := strings.Repeat("-", tableWidth) + "\n"
	sb.WriteString(border)
	sb.WriteString(row("Name", "Phone Numbers", "Birthday"))
	sb.WriteString(border)
	for _, c := range contacts {
		sb.WriteString(row(c.Name.String(), strings.Join(c.PhoneStrings(), ";"), c.BirthdayString()))
	}
	sb.WriteString(border)

	_, err := io.WriteString(w, sb.String())
	return err
}

func row(name, phones, birthday string) string {
	return fmt.Sprintf("| %-*s | %-*s | %-*s |\n",
		maxNameLength, name, maxPhoneLength, phones, maxBirthdayLength, birthday)
}

func (Table) DisplayCommands(w io.Writer) error {
	_, err := fmt.Fprint(w, Commands+"\n")
	return err
}

func (Table) DisplayMessage(w io.Writer, message string) error {
	_, err := fmt.Fprintln(w, message)
	return err
}
