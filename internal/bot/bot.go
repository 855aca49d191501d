// Package bot interprets address book commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
	"github.com/Danyil-SY/assistant-bot/internal/storage"
	"github.com/Danyil-SY/assistant-bot/internal/view"
	"github.com/rs/zerolog"
)

const (
	CommandCommands     = "commands"
	CommandHello        = "hello"
	CommandAdd          = "add"
	CommandChange       = "change"
	CommandPhone        = "phone"
	CommandAll          = "all"
	CommandAddBirthday  = "add-birthday"
	CommandShowBirthday = "show-birthday"
	CommandBirthdays    = "birthdays"
	CommandDelete       = "delete"
	CommandClose        = "close"
	CommandExit         = "exit"
	CommandQuit         = "quit"
)

const (
	msgContactNotFound = "Contact not found."
	msgUserNotFound    = "User does not exist."
	msgGoodbye         = "Goodbye!"
	msgInvalidCommand  = "Invalid command."
)

// Reply is the outcome of one command.
type Reply struct {
	Command string
	Message string
	// Contacts is set by "all" so a view can render the records itself.
	Contacts []*domain.Record
	Exit     bool
}

// handler returns the reply text and whether the book was changed.
type handler func(args []string) (string, bool, error)

// Bot executes commands against an address book and persists every change.
// Commands are serialized so a change and its save are never interleaved
// with another command.
type Bot struct {
	mu       sync.Mutex
	book     *domain.AddressBook
	store    storage.Store
	window   int
	now      func() time.Time
	logger   zerolog.Logger
	handlers map[string]handler
}

func New(book *domain.AddressBook, store storage.Store, window int, logger zerolog.Logger) *Bot {
	b := &Bot{
		book:   book,
		store:  store,
		window: window,
		now:    time.Now,
		logger: logger,
	}
	b.handlers = map[string]handler{
		CommandHello:        b.hello,
		CommandAdd:          b.addContact,
		CommandChange:       b.changeContact,
		CommandPhone:        b.showPhone,
		CommandAddBirthday:  b.addBirthday,
		CommandShowBirthday: b.showBirthday,
		CommandBirthdays:    b.birthdays,
		CommandDelete:       b.deleteContact,
	}
	return b
}

func (b *Bot) Book() *domain.AddressBook { return b.book }

// Execute runs one console line.
func (b *Bot) Execute(ctx context.Context, line string) Reply {
	cmd, args := Parse(line)
	if cmd == "" {
		return Reply{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	reply := Reply{Command: cmd}
	switch cmd {
	case CommandClose, CommandExit, CommandQuit:
		reply.Message = msgGoodbye
		reply.Exit = true
		return reply
	case CommandCommands:
		reply.Message = strings.TrimSpace(view.Commands)
		return reply
	case CommandAll:
		if b.book.Len() == 0 {
			reply.Message = "Book is empty."
			return reply
		}
		reply.Contacts = b.book.Records()
		reply.Message = b.book.String()
		return reply
	}

	h, ok := b.handlers[cmd]
	if !ok {
		reply.Message = msgInvalidCommand
		return reply
	}

	msg, changed, err := h(args)
	if err != nil {
		b.logger.Debug().Err(err).Str("command", cmd).Msg("Command failed")
		reply.Message = errorReply(err)
		return reply
	}
	if changed {
		if err := b.store.Save(ctx, b.book); err != nil {
			b.logger.Error().Err(err).Str("command", cmd).Msg("Failed to save address book")
			reply.Message = errorReply(fmt.Errorf("failed to save address book: %w", err))
			return reply
		}
	}
	reply.Message = msg
	return reply
}

func (b *Bot) hello(args []string) (string, bool, error) {
	return "How can I help you?", false, nil
}

func (b *Bot) addContact(args []string) (string, bool, error) {
	if err := exactArgs(args, 2); err != nil {
		return "", false, err
	}
	name, phone := args[0], args[1]

	err := b.book.Update(name, func(r *domain.Record) error { return r.AddPhone(phone) })
	switch {
	case err == nil:
		return "Phone added.", true, nil
	case !errors.Is(err, domain.ErrContactNotFound):
		return "", false, err
	}

	record, err := domain.NewRecord(name)
	if err != nil {
		return "", false, err
	}
	if err := record.AddPhone(phone); err != nil {
		return "", false, err
	}
	b.book.Add(record)
	return "Contact added.", true, nil
}

func (b *Bot) changeContact(args []string) (string, bool, error) {
	if err := exactArgs(args, 3); err != nil {
		return "", false, err
	}
	name, oldPhone, newPhone := args[0], args[1], args[2]

	err := b.book.Update(name, func(r *domain.Record) error { return r.EditPhone(oldPhone, newPhone) })
	if errors.Is(err, domain.ErrContactNotFound) {
		return msgContactNotFound, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return "Contact updated.", true, nil
}

func (b *Bot) showPhone(args []string) (string, bool, error) {
	name, err := firstArg(args)
	if err != nil {
		return "", false, err
	}
	record, ok := b.book.Find(name)
	if !ok {
		return msgContactNotFound, false, nil
	}
	return strings.Join(record.PhoneStrings(), "; "), false, nil
}

func (b *Bot) addBirthday(args []string) (string, bool, error) {
	if err := exactArgs(args, 2); err != nil {
		return "", false, err
	}
	name, birthday := args[0], args[1]

	err := b.book.Update(name, func(r *domain.Record) error { return r.SetBirthday(birthday) })
	if errors.Is(err, domain.ErrContactNotFound) {
		return msgUserNotFound, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return "Birthday added.", true, nil
}

func (b *Bot) showBirthday(args []string) (string, bool, error) {
	name, err := firstArg(args)
	if err != nil {
		return "", false, err
	}
	record, ok := b.book.Find(name)
	if !ok {
		return msgContactNotFound, false, nil
	}
	return record.BirthdayString(), false, nil
}

func (b *Bot) birthdays(args []string) (string, bool, error) {
	upcoming := b.book.UpcomingBirthdays(b.now(), b.window)
	if len(upcoming) == 0 {
		return "No upcoming birthdays.", false, nil
	}
	lines := make([]string, 0, len(upcoming))
	for _, c := range upcoming {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, c.CongratulationDate()))
	}
	return strings.Join(lines, "\n"), false, nil
}

func (b *Bot) deleteContact(args []string) (string, bool, error) {
	name, err := firstArg(args)
	if err != nil {
		return "", false, err
	}
	if !b.book.Delete(name) {
		return msgContactNotFound, false, nil
	}
	return "Contact deleted.", true, nil
}
