/*
Package parse deals with parsing the irc protocol.
*/
package parse

import (
	"regexp"
	"strings"

	"github.com/irctools/xdcc/irc"
)

const (
	// errMsgParseFailure is given when ircRegex fails to parse a line.
	errMsgParseFailure = "parse: unable to parse received irc protocol"
)

// ircRegex splits a line into prefix, command and parameters. The command
// token is an alphabetic word or a 3-digit numeric.
var ircRegex = regexp.MustCompile(
	`^(?::(\S+) )?([A-Za-z]+|[0-9]{3})((?: [^:\s][^\s]*)*)(?: :(.*))?$`)

// ParseError is returned when a line does not match the irc grammar, most
// importantly when it lacks a command token. It is local and recoverable:
// the caller should skip the line and continue reading.
type ParseError struct {
	// Msg describes the failure.
	Msg string
	// Line is the offending line.
	Line string
}

// Error satisfies the error interface for ParseError.
func (p ParseError) Error() string {
	return p.Msg
}

// Parse produces an irc.Event from a single protocol line. The line must not
// contain the CRLF terminator.
func Parse(line []byte) (*irc.Event, error) {
	str := string(line)

	parts := ircRegex.FindStringSubmatch(str)
	if parts == nil {
		return nil, ParseError{Msg: errMsgParseFailure, Line: str}
	}

	var args []string
	if mid := strings.TrimLeft(parts[3], " "); len(mid) > 0 {
		args = strings.Split(mid, " ")
	}
	if parts[4] != "" || strings.HasSuffix(str, " :") {
		args = append(args, parts[4])
	}

	return irc.NewEvent(strings.ToUpper(parts[2]), parts[1], args...), nil
}
