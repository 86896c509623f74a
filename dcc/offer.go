/*
Package dcc parses DCC SEND payloads carried in CTCP messages into typed
transfer offers. Parsing is pure, no I/O happens here.
*/
package dcc

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Offer is a file transfer endpoint announced by a bot through DCC SEND.
// The filesize is bot-reported and not independently verified.
type Offer struct {
	// Filename with surrounding quotes removed and quote escapes undone.
	Filename string
	// Addr is the transfer address, decoded from the legacy 32-bit integer
	// form or parsed from its textual form.
	Addr net.IP
	// Port is the transfer port.
	Port uint16
	// Size is the advertised file size in bytes, zero when unknown.
	Size uint64
	// SizeKnown is false when the bot omitted the size field.
	SizeKnown bool
}

// Reason discriminates why a payload failed to parse as a DCC SEND offer.
type Reason int

const (
	// ReasonNotSend means the payload is some other DCC subcommand, such as
	// ACCEPT or CHAT. Expected traffic, not an offer.
	ReasonNotSend Reason = iota
	// ReasonMissingField means a required field was absent.
	ReasonMissingField
	// ReasonUnterminatedQuote means a quoted filename never closed.
	ReasonUnterminatedQuote
	// ReasonBadAddress means the address was neither a 32-bit integer nor a
	// textual IP address.
	ReasonBadAddress
	// ReasonBadPort means the port was non-numeric or out of 16-bit range.
	ReasonBadPort
	// ReasonBadSize means a size field was present but non-numeric.
	ReasonBadSize
)

var reasonStrings = map[Reason]string{
	ReasonNotSend:           "not a DCC SEND",
	ReasonMissingField:      "missing field",
	ReasonUnterminatedQuote: "unterminated quoted filename",
	ReasonBadAddress:        "bad address",
	ReasonBadPort:           "bad port",
	ReasonBadSize:           "bad filesize",
}

// String returns the description of the reason.
func (r Reason) String() string {
	if s, ok := reasonStrings[r]; ok {
		return s
	}
	return "unknown"
}

// ParseError is returned when a payload is not a valid DCC SEND offer. The
// caller should treat the message as unrelated traffic and keep waiting.
type ParseError struct {
	Reason  Reason
	Payload string
}

// Error satisfies the error interface for ParseError.
func (p ParseError) Error() string {
	return fmt.Sprintf("dcc: %s in payload %q", p.Reason, p.Payload)
}

// ParseSend parses the data portion of a DCC CTCP payload, i.e. everything
// after the "DCC" tag:
//
//	SEND <filename> <address> <port> [<filesize>] [<token>...]
//
// The filename may be quoted to carry embedded spaces, with \" escaping
// interior quotes. The address is either the legacy network-order 32-bit
// integer encoding of an IPv4 address or a textual address. A missing
// filesize is tolerated and flagged via SizeKnown. Trailing tokens such as
// resume markers are ignored.
func ParseSend(data string) (*Offer, error) {
	fail := func(r Reason) (*Offer, error) {
		return nil, ParseError{Reason: r, Payload: data}
	}

	rest := strings.TrimSpace(data)
	sub, rest, _ := cut(rest)
	if !strings.EqualFold(sub, "SEND") {
		return fail(ReasonNotSend)
	}

	if rest == "" {
		return fail(ReasonMissingField)
	}

	filename, rest, ok := cutFilename(rest)
	if !ok {
		return fail(ReasonUnterminatedQuote)
	}
	if filename == "" {
		return fail(ReasonMissingField)
	}

	addrTok, rest, _ := cut(rest)
	if addrTok == "" {
		return fail(ReasonMissingField)
	}
	addr := parseAddr(addrTok)
	if addr == nil {
		return fail(ReasonBadAddress)
	}

	portTok, rest, _ := cut(rest)
	if portTok == "" {
		return fail(ReasonMissingField)
	}
	port, err := strconv.ParseUint(portTok, 10, 16)
	if err != nil {
		return fail(ReasonBadPort)
	}

	offer := &Offer{
		Filename: filename,
		Addr:     addr,
		Port:     uint16(port),
	}

	// Some bots omit the filesize entirely. Tolerate absence, reject noise.
	if sizeTok, _, _ := cut(rest); sizeTok != "" {
		size, err := strconv.ParseUint(sizeTok, 10, 64)
		if err != nil {
			return fail(ReasonBadSize)
		}
		offer.Size = size
		offer.SizeKnown = true
	}

	return offer, nil
}

// cut splits off the next whitespace-delimited token.
func cut(s string) (tok, rest string, found bool) {
	s = strings.TrimLeft(s, " ")
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return s, "", s != ""
	}
	return s[:i], strings.TrimLeft(s[i:], " "), true
}

// cutFilename splits off the filename, honoring a quoted form that may
// contain spaces and escaped interior quotes.
func cutFilename(s string) (filename, rest string, ok bool) {
	s = strings.TrimLeft(s, " ")
	if len(s) == 0 || s[0] != '"' {
		tok, rest, _ := cut(s)
		return tok, rest, true
	}

	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			name := strings.ReplaceAll(s[1:i], `\"`, `"`)
			return name, strings.TrimLeft(s[i+1:], " "), true
		}
	}
	return "", "", false
}

// parseAddr decodes the address field. All-digit tokens are the legacy
// encoding: a network byte order 32-bit integer. Anything else must parse as
// a textual IPv4 or IPv6 address.
func parseAddr(tok string) net.IP {
	if isDigits(tok) {
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		return net.IPv4(buf[0], buf[1], buf[2], buf[3])
	}
	return net.ParseIP(tok)
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
