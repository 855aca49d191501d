package bot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Danyil-SY/assistant-bot/internal/view"
	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
)

func TestSessionChoosesViewAndExits(t *testing.T) {
	b, _ := newTestBot(t)
	in := strings.NewReader("fancy\nsimple\nhello\nadd John 1234567890\n\nall\nexit\nhello\n")
	var out bytes.Buffer

	session := NewSession(b, in, &out, nil, zerolog.Nop())
	assert.NilError(t, session.Run(context.Background()))

	want := "Welcome to the assistant bot!\n" +
		"Choose view (simple/table): Invalid choice. Please choose 'simple' or 'table'.\n" +
		"Choose view (simple/table): " + view.Commands + "\n" +
		"Enter a command: How can I help you?\n" +
		"Enter a command: Contact added.\n" +
		"Enter a command: " +
		"Enter a command: Contacts:\nContact name: John, phones: 1234567890, birthday: None\n" +
		"Enter a command: Goodbye!\n"
	assert.Equal(t, out.String(), want)
}

func TestSessionWithConfiguredViewStopsAtEOF(t *testing.T) {
	b, _ := newTestBot(t)
	var out bytes.Buffer

	session := NewSession(b, strings.NewReader("all"), &out, view.Simple{}, zerolog.Nop())
	assert.NilError(t, session.Run(context.Background()))

	want := "Welcome to the assistant bot!\n" +
		view.Commands + "\n" +
		"Enter a command: Book is empty.\n" +
		"Enter a command: "
	assert.Equal(t, out.String(), want)
}

func TestSessionEOFDuringViewChoice(t *testing.T) {
	b, _ := newTestBot(t)
	var out bytes.Buffer

	session := NewSession(b, strings.NewReader(""), &out, nil, zerolog.Nop())
	assert.NilError(t, session.Run(context.Background()))
	assert.Equal(t, out.String(), "Welcome to the assistant bot!\nChoose view (simple/table): ")
}

func TestSessionStopsOnCancelledContext(t *testing.T) {
	b, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewSession(b, strings.NewReader("hello\n"), &bytes.Buffer{}, view.Table{}, zerolog.Nop())
	assert.ErrorIs(t, session.Run(ctx), context.Canceled)
}
