package irc

import (
	"fmt"
	"strings"
)

// FormatError is returned when an outgoing command cannot be expressed as a
// legal IRC line, for example when a non-trailing parameter contains a space.
type FormatError struct {
	Cmd   string
	Param string
	Msg   string
}

// Error satisfies the error interface for FormatError.
func (f FormatError) Error() string {
	return fmt.Sprintf("irc: cannot format %s: %s (param: %q)",
		f.Cmd, f.Msg, f.Param)
}

// Render produces a wire line for a command and its parameters, without the
// trailing CRLF. The final parameter is sent as the trailing parameter when
// it is empty, contains a space, or begins with ':'. Any other parameter with
// those properties makes the line unrepresentable and returns a FormatError.
func Render(cmd string, params ...string) (string, error) {
	if len(cmd) == 0 || strings.ContainsAny(cmd, " \r\n\x00") {
		return "", FormatError{Cmd: cmd, Msg: "bad command token"}
	}

	b := &strings.Builder{}
	b.WriteString(cmd)

	last := len(params) - 1
	for i, p := range params {
		if strings.ContainsAny(p, "\r\n\x00") {
			return "", FormatError{Cmd: cmd, Param: p,
				Msg: "parameter contains line terminator"}
		}
		needsTrailing := len(p) == 0 || p[0] == ':' ||
			strings.ContainsRune(p, ' ')
		if needsTrailing && i != last {
			return "", FormatError{Cmd: cmd, Param: p,
				Msg: "non-trailing parameter needs trailing position"}
		}

		b.WriteByte(' ')
		if needsTrailing {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}

	return b.String(), nil
}

// RenderNick formats a NICK command.
func RenderNick(nick string) (string, error) {
	return Render(NICK, nick)
}

// RenderUser formats a USER command with the standard mode/unused fields.
func RenderUser(username, realname string) (string, error) {
	return Render(USER, username, "0", "*", realname)
}

// RenderJoin formats a JOIN command.
func RenderJoin(channel string) (string, error) {
	return Render(JOIN, channel)
}

// RenderPong formats the PONG reply for a received PING payload.
func RenderPong(payload string) (string, error) {
	return Render(PONG, payload)
}

// RenderCTCP formats a PRIVMSG to target carrying a CTCP tag and data.
func RenderCTCP(target, tag, data string) (string, error) {
	return Render(PRIVMSG, target, CTCPpackString(tag, data))
}
