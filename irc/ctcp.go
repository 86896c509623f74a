package irc

import "strings"

// CTCP delimiter and quoting characters.
const (
	CTCPDelim     = '\x01'
	CTCPLowQuote  = '\x10'
	CTCPHighQuote = '\x5C'
	CTCPSep       = '\x20'
)

// IsCTCPString reports whether msg is delimited by CTCPDelim on both ends.
func IsCTCPString(msg string) bool {
	return len(msg) >= 2 && msg[0] == CTCPDelim && msg[len(msg)-1] == CTCPDelim
}

// CTCPpackString packs a tag and data into a delimited CTCP payload, applying
// both quoting levels.
func CTCPpackString(tag, data string) string {
	body := ctcpHighEscape(tag)
	if len(data) > 0 {
		body += string(CTCPSep) + ctcpHighEscape(data)
	}
	return string(CTCPDelim) + ctcpLowEscape(body) + string(CTCPDelim)
}

// CTCPunpackString unpacks a delimited CTCP payload into its tag and data.
// Data is empty when the payload carries only a tag.
func CTCPunpackString(msg string) (tag, data string) {
	msg = ctcpLowUnescape(msg[1 : len(msg)-1])
	tag, data, _ = strings.Cut(msg, string(CTCPSep))
	return ctcpHighUnescape(tag), ctcpHighUnescape(data)
}

// High level quoting:
// X-DELIM --> X-QUOTE 'a'
// X-QUOTE --> X-QUOTE X-QUOTE
var (
	highEscaper = strings.NewReplacer(
		string(CTCPHighQuote), string(CTCPHighQuote)+string(CTCPHighQuote),
		string(CTCPDelim), string(CTCPHighQuote)+"a",
	)
	highUnescaper = strings.NewReplacer(
		string(CTCPHighQuote)+"a", string(CTCPDelim),
		string(CTCPHighQuote)+string(CTCPHighQuote), string(CTCPHighQuote),
	)
)

// Low level quoting:
// NUL --> M-QUOTE '0'
// NL  --> M-QUOTE 'n'
// CR  --> M-QUOTE 'r'
// M-QUOTE --> M-QUOTE M-QUOTE
var (
	lowEscaper = strings.NewReplacer(
		string(CTCPLowQuote), string(CTCPLowQuote)+string(CTCPLowQuote),
		"\x00", string(CTCPLowQuote)+"0",
		"\n", string(CTCPLowQuote)+"n",
		"\r", string(CTCPLowQuote)+"r",
	)
	lowUnescaper = strings.NewReplacer(
		string(CTCPLowQuote)+"0", "\x00",
		string(CTCPLowQuote)+"n", "\n",
		string(CTCPLowQuote)+"r", "\r",
		string(CTCPLowQuote)+string(CTCPLowQuote), string(CTCPLowQuote),
	)
)

func ctcpHighEscape(in string) string   { return highEscaper.Replace(in) }
func ctcpHighUnescape(in string) string { return highUnescaper.Replace(in) }
func ctcpLowEscape(in string) string    { return lowEscaper.Replace(in) }
func ctcpLowUnescape(in string) string  { return lowUnescaper.Replace(in) }
