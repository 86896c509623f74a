package irc

import "testing"

func TestIsCTCPHelper(t *testing.T) {
	ev := NewEvent(PRIVMSG, "bot!u@h", "user", "\x01DCC SEND\x01")
	if !ev.IsCTCP() {
		t.Error("Expected it to be a CTCP Event.")
	}

	ev = NewEvent(NOTICE, "bot!u@h", "user", "\x01DCC SEND\x01")
	if !ev.IsCTCP() {
		t.Error("Expected it to be a CTCP Event.")
	}

	ev = NewEvent(PRIVMSG, "bot!u@h", "user", "DCC SEND")
	if ev.IsCTCP() {
		t.Error("CTCP cannot be missing delimiter bytes.")
	}

	ev = NewEvent(JOIN, "bot!u@h", "user", "\x01DCC SEND\x01")
	if ev.IsCTCP() {
		t.Error("Only PRIVMSG and NOTICE can be CTCP events.")
	}
}

func TestCTCPpackString(t *testing.T) {
	got := CTCPpackString("XDCC", "SEND 42")
	if got != "\x01XDCC SEND 42\x01" {
		t.Errorf("Bad packing: %q", got)
	}

	got = CTCPpackString("VERSION", "")
	if got != "\x01VERSION\x01" {
		t.Errorf("Bad tag-only packing: %q", got)
	}
}

func TestCTCPunpackString(t *testing.T) {
	tag, data := CTCPunpackString("\x01DCC SEND file 1 2 3\x01")
	if tag != "DCC" {
		t.Errorf("Bad tag: %q", tag)
	}
	if data != "SEND file 1 2 3" {
		t.Errorf("Bad data: %q", data)
	}

	tag, data = CTCPunpackString("\x01PING\x01")
	if tag != "PING" {
		t.Errorf("Bad tag: %q", tag)
	}
	if data != "" {
		t.Errorf("Expected empty data, got: %q", data)
	}
}

func TestCTCPQuotingRoundTrip(t *testing.T) {
	raws := []string{
		"plain",
		"has\x01delim",
		"has\\quote",
		"has\r\nnewline and \x10 low quote",
		"\x00nul",
	}

	for _, raw := range raws {
		packed := CTCPpackString("TAG", raw)
		for i := 1; i < len(packed)-1; i++ {
			switch packed[i] {
			case CTCPDelim, '\r', '\n', '\x00':
				t.Errorf("Unquoted byte %#x inside packing of %q", packed[i], raw)
			}
		}
		tag, data := CTCPunpackString(packed)
		if tag != "TAG" || data != raw {
			t.Errorf("Round trip of %q gave tag=%q data=%q", raw, tag, data)
		}
	}
}
