// Package view renders bot output for a console user.
package view

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

var ErrUnknownView = errors.New("unknown view")

const (
	SimpleName = "simple"
	TableName  = "table"
)

// Commands is the help text listing every command the bot understands.
const Commands = `
    Commands:
    1. add [name] [phone]: Add a new contact with a name and phone number, or add a phone number to an existing contact.
    2. change [name] [old phone] [new phone]: Change the phone number for the specified contact.
    3. phone [name]: Show the phone numbers for the specified contact.
    4. all: Show all contacts in the address book.
    5. add-birthday [name] [date of birth]: Add the date of birth (DD.MM.YYYY) for the specified contact.
    6. show-birthday [name]: Show the date of birth for the specified contact.
    7. birthdays: Show upcoming birthdays within the next week.
    8. delete [name]: Delete the specified contact.
    9. hello: Receive a greeting from the bot.
    10. close or exit: Close the program.
    11. commands: Print the list of commands.
`

// View displays contacts, the command list and plain messages.
type View interface {
	DisplayContacts(w io.Writer, contacts []*domain.Record) error
	DisplayCommands(w io.Writer) error
	DisplayMessage(w io.Writer, message string) error
}

// Parse returns the view registered under name.
func Parse(name string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SimpleName:
		return Simple{}, nil
	case TableName:
		return Table{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

type Simple struct{}

func (Simple) DisplayContacts(w io.Writer, contacts []*domain.Record) error {
	if _, err := fmt.Fprintln(w, "Contacts:"); err != nil {
		return err
	}
	for _, c := range contacts {
		if _, err := fmt.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	return nil
}

func (Simple) DisplayCommands(w io.Writer) error {
	_, err := fmt.Fprint(w, Commands+"\n")
	return err
}

func (Simple) DisplayMessage(w io.Writer, message string) error {
	_, err := fmt.Fprintln(w, message)
	return err
}
