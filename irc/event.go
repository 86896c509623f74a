/*
Package irc defines the protocol-level types shared by the other packages in
the module: the decoded message event, command and numeric constants, CTCP
quoting, casemapping and the outgoing line renderer.
*/
package irc

import (
	"bytes"
	"strings"
	"time"
)

// Event is one decoded inbound IRC message.
type Event struct {
	// Name of the event. Uppercase command name or 3-digit numeric.
	Name string
	// Sender is the server or user that sent the event, normally a fullhost.
	Sender string
	// Args are the message parameters, the trailing parameter last.
	Args []string
	// Time is the time this event was received.
	Time time.Time
}

// NewEvent constructs an event with a timestamp.
func NewEvent(name, sender string, args ...string) *Event {
	var setArgs []string
	if len(args) > 0 {
		setArgs = make([]string, len(args))
		copy(setArgs, args)
	}
	return &Event{name, sender, setArgs, time.Now().UTC()}
}

// Nick returns the nick portion of the sender. Will be the whole sender if it
// carries no user@host part, and empty if there is no sender at all.
func (e *Event) Nick() string {
	if i := strings.IndexByte(e.Sender, '!'); i >= 0 {
		return e.Sender[:i]
	}
	if i := strings.IndexByte(e.Sender, '@'); i >= 0 {
		return e.Sender[:i]
	}
	return e.Sender
}

// Target retrieves the channel or user the event was sent to. Check that the
// event name is a message type carrying a target before using this.
func (e *Event) Target() string {
	if len(e.Args) == 0 {
		return ""
	}
	return e.Args[0]
}

// Message retrieves the message text sent to the user or channel. Check that
// the event name is a message type carrying text before using this.
func (e *Event) Message() string {
	if len(e.Args) < 2 {
		return ""
	}
	return e.Args[1]
}

// IsCTCP checks if this event is a CTCP event. This means it's delimited by
// CTCPDelim as well as being PRIVMSG or NOTICE only.
func (e *Event) IsCTCP() bool {
	return (e.Name == PRIVMSG || e.Name == NOTICE) && len(e.Args) >= 2 &&
		IsCTCPString(e.Args[1])
}

// UnpackCTCP retrieves the tag and data from a CTCP event.
func (e *Event) UnpackCTCP() (tag, data string) {
	return CTCPunpackString(e.Args[1])
}

// String turns the event back into an IRC style line.
func (e *Event) String() string {
	b := &bytes.Buffer{}
	if len(e.Sender) > 0 {
		b.WriteByte(':')
		b.WriteString(e.Sender)
		b.WriteByte(' ')
	}
	b.WriteString(e.Name)

	lastArg := len(e.Args) - 1
	for i, arg := range e.Args {
		b.WriteByte(' ')
		if lastArg == i && (len(arg) == 0 || strings.ContainsRune(arg, ' ') ||
			arg[0] == ':') {
			b.WriteByte(':')
		}
		b.WriteString(arg)
	}

	return b.String()
}
