package irc

import "testing"

func TestEventNick(t *testing.T) {
	tests := []struct{ sender, want string }{
		{"nick!user@host.com", "nick"},
		{"nick@host.com", "nick"},
		{"irc.server.org", "irc.server.org"},
		{"", ""},
	}

	for _, tt := range tests {
		ev := NewEvent(PRIVMSG, tt.sender, "target", "msg")
		if got := ev.Nick(); got != tt.want {
			t.Errorf("Nick of %q = %q, want %q", tt.sender, got, tt.want)
		}
	}
}

func TestEventAccessors(t *testing.T) {
	ev := NewEvent(PRIVMSG, "bot!u@h", "#chan", "hello there")
	if ev.Target() != "#chan" {
		t.Errorf("Bad target: %q", ev.Target())
	}
	if ev.Message() != "hello there" {
		t.Errorf("Bad message: %q", ev.Message())
	}

	short := NewEvent(PING, "")
	if short.Target() != "" || short.Message() != "" {
		t.Error("Accessors on short events must return empty strings.")
	}
}

func TestEventString(t *testing.T) {
	ev := NewEvent(PRIVMSG, "nick!u@h", "#chan", "two words")
	if got := ev.String(); got != ":nick!u@h PRIVMSG #chan :two words" {
		t.Errorf("Bad string form: %q", got)
	}

	ev = NewEvent(JOIN, "", "#chan")
	if got := ev.String(); got != "JOIN #chan" {
		t.Errorf("Bad string form: %q", got)
	}
}
