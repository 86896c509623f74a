package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/irctools/xdcc/dcc"
	"github.com/irctools/xdcc/mocks"
)

const scriptWait = 2 * time.Second

type result struct {
	offer *dcc.Offer
	err   error
}

// script drives one side of a conversation against the engine.
type script struct {
	t    *testing.T
	conn *mocks.Conn
}

// expect asserts the engine's next written line starts with prefix and
// returns it without the CRLF.
func (s *script) expect(prefix string) string {
	s.t.Helper()
	line := s.conn.Recv(scriptWait)
	if line == "" {
		s.t.Fatalf("Engine wrote nothing, expected %q", prefix)
	}
	line = strings.TrimSuffix(line, "\r\n")
	if !strings.HasPrefix(line, prefix) {
		s.t.Fatalf("Engine wrote %q, expected prefix %q", line, prefix)
	}
	return line
}

// registerAndJoin plays the server through registration and channel join,
// returning the nickname the engine registered with.
func (s *script) registerAndJoin(channel string) string {
	s.t.Helper()
	nickLine := s.expect("NICK ")
	nick := strings.TrimPrefix(nickLine, "NICK ")
	s.expect("USER ")
	s.conn.Send(":irc.example.org 001 " + nick + " :Welcome to the network\r\n")

	s.expect("JOIN " + channel)
	s.conn.Send(":" + nick + "!u@h JOIN " + channel + "\r\n")
	return nick
}

func start(t *testing.T, opts ...Option) (*script, chan result) {
	t.Helper()
	conn := mocks.NewConn()

	base := []Option{
		WithDialer(&mocks.Dialer{Conn: conn}),
		WithTimeout(scriptWait),
	}
	e := New(append(base, opts...)...)

	req, err := e.NewRequest("irc.example.org", "#packs", "PackBot", 42)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan result, 1)
	go func() {
		offer, err := req.Execute(context.Background())
		done <- result{offer, err}
	}()

	return &script{t, conn}, done
}

func TestExecuteReturnsOffer(t *testing.T) {
	sc, done := start(t)

	nick := sc.registerAndJoin("#packs")
	sc.expect("PRIVMSG PackBot :\x01XDCC SEND 42\x01")
	sc.conn.Send(":PackBot!bot@host PRIVMSG " + nick +
		" :\x01DCC SEND \"My File.bin\" 3232235777 51413 104857600\x01\r\n")

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.offer.Filename != "My File.bin" {
		t.Errorf("filename = %q", res.offer.Filename)
	}
	if res.offer.Addr.String() != "192.168.1.1" {
		t.Errorf("addr = %v", res.offer.Addr)
	}
	if res.offer.Port != 51413 {
		t.Errorf("port = %d", res.offer.Port)
	}
	if res.offer.Size != 104857600 || !res.offer.SizeKnown {
		t.Errorf("size = %d known=%v", res.offer.Size, res.offer.SizeKnown)
	}

	if !sc.conn.WaitClosed(scriptWait) {
		t.Error("Connection must be closed after completion.")
	}
}

func TestExecuteAnswersPing(t *testing.T) {
	sc, done := start(t)

	nickLine := sc.expect("NICK ")
	nick := strings.TrimPrefix(nickLine, "NICK ")
	sc.expect("USER ")

	sc.conn.Send("PING :irc.example.org\r\n")
	sc.expect("PONG irc.example.org")

	sc.conn.Send(":irc.example.org 001 " + nick + " :Welcome\r\n")
	sc.expect("JOIN #packs")
	sc.conn.Send(":irc.example.org 353 " + nick + " = #packs :" + nick + "\r\n")

	sc.expect("PRIVMSG PackBot ")
	sc.conn.Send(":PackBot!b@h PRIVMSG " + nick +
		" :\x01DCC SEND file.bin 3232235777 5000 1\x01\r\n")

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
}

func TestExecuteIgnoresWrongSender(t *testing.T) {
	sc, done := start(t, WithTimeout(400*time.Millisecond))

	nick := sc.registerAndJoin("#packs")
	sc.expect("PRIVMSG PackBot ")

	// Offer from an impostor must be ignored until the deadline runs out.
	sc.conn.Send(":OtherBot!b@h PRIVMSG " + nick +
		" :\x01DCC SEND file.bin 3232235777 5000 1\x01\r\n")

	res := <-done
	terr, ok := res.err.(*TimeoutError)
	if !ok {
		t.Fatalf("Expected TimeoutError, got %v", res.err)
	}
	if terr.Cancelled {
		t.Error("Deadline expiry must not read as cancellation.")
	}
	if !sc.conn.WaitClosed(scriptWait) {
		t.Error("Connection must be closed after timeout.")
	}
}

func TestExecuteSkipsMalformedOffer(t *testing.T) {
	sc, done := start(t)

	nick := sc.registerAndJoin("#packs")
	sc.expect("PRIVMSG PackBot ")

	// bad port, then DCC ACCEPT noise, then the real offer
	sc.conn.Send(":PackBot!b@h PRIVMSG " + nick +
		" :\x01DCC SEND file.bin 3232235777 http 1\x01\r\n")
	sc.conn.Send(":PackBot!b@h PRIVMSG " + nick +
		" :\x01DCC ACCEPT file.bin 5000 1024\x01\r\n")
	sc.conn.Send(":PackBot!b@h PRIVMSG " + nick +
		" :\x01DCC SEND file.bin 3232235777 5000 1024\x01\r\n")

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.offer.Port != 5000 {
		t.Errorf("port = %d", res.offer.Port)
	}
}

func TestExecuteNickCollisionRetries(t *testing.T) {
	sc, done := start(t)

	var nicks []string
	for i := 0; i < 3; i++ {
		line := sc.expect("NICK ")
		nicks = append(nicks, strings.TrimPrefix(line, "NICK "))
		if i == 0 {
			sc.expect("USER ")
		}
		sc.conn.Send(":irc.example.org 433 * " + nicks[i] +
			" :Nickname is already in use\r\n")
	}

	res := <-done
	rerr, ok := res.err.(*RegistrationError)
	if !ok {
		t.Fatalf("Expected RegistrationError, got %v", res.err)
	}
	if rerr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", rerr.Attempts)
	}
	if nicks[0] == nicks[1] || nicks[1] == nicks[2] {
		t.Errorf("Retries must use fresh nicknames: %v", nicks)
	}
	if !sc.conn.WaitClosed(scriptWait) {
		t.Error("Connection must be closed after failure.")
	}
}

func TestExecuteCollisionThenSuccess(t *testing.T) {
	sc, done := start(t)

	first := strings.TrimPrefix(sc.expect("NICK "), "NICK ")
	sc.expect("USER ")
	sc.conn.Send(":irc.example.org 433 * " + first + " :Nickname is already in use\r\n")

	second := strings.TrimPrefix(sc.expect("NICK "), "NICK ")
	sc.conn.Send(":irc.example.org 001 " + second + " :Welcome\r\n")

	sc.expect("JOIN #packs")
	sc.conn.Send(":" + second + "!u@h JOIN #packs\r\n")
	sc.expect("PRIVMSG PackBot ")
	sc.conn.Send(":PackBot!b@h PRIVMSG " + second +
		" :\x01DCC SEND file.bin 3232235777 5000 1\x01\r\n")

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
}

func TestExecuteJoinRejected(t *testing.T) {
	sc, done := start(t)

	nickLine := sc.expect("NICK ")
	nick := strings.TrimPrefix(nickLine, "NICK ")
	sc.expect("USER ")
	sc.conn.Send(":irc.example.org 001 " + nick + " :Welcome\r\n")

	sc.expect("JOIN #packs")
	sc.conn.Send(":irc.example.org 473 " + nick +
		" #packs :Cannot join channel (+i)\r\n")

	res := <-done
	jerr, ok := res.err.(*JoinError)
	if !ok {
		t.Fatalf("Expected JoinError, got %v", res.err)
	}
	if jerr.Code != "473" || jerr.Channel != "#packs" {
		t.Errorf("JoinError = %+v", jerr)
	}
}

func TestExecuteBotRejects(t *testing.T) {
	sc, done := start(t)

	nick := sc.registerAndJoin("#packs")
	sc.expect("PRIVMSG PackBot ")
	sc.conn.Send(":PackBot!b@h NOTICE " + nick +
		" :** Invalid pack number\r\n")

	res := <-done
	berr, ok := res.err.(*BotRejectedError)
	if !ok {
		t.Fatalf("Expected BotRejectedError, got %v", res.err)
	}
	if berr.Reason != "** Invalid pack number" {
		t.Errorf("reason = %q", berr.Reason)
	}
}

func TestExecuteCaseInsensitiveBotMatch(t *testing.T) {
	sc, done := start(t)

	nick := sc.registerAndJoin("#packs")
	sc.expect("PRIVMSG PackBot ")
	sc.conn.Send(":pACKbOT!b@h PRIVMSG " + nick +
		" :\x01DCC SEND file.bin 3232235777 5000 1\x01\r\n")

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
}

func TestExecuteTimesOutSilently(t *testing.T) {
	sc, done := start(t, WithTimeout(150*time.Millisecond))

	sc.expect("NICK ")
	sc.expect("USER ")
	// server says nothing at all

	res := <-done
	terr, ok := res.err.(*TimeoutError)
	if !ok {
		t.Fatalf("Expected TimeoutError, got %v", res.err)
	}
	if terr.Cancelled {
		t.Error("Deadline expiry must not read as cancellation.")
	}
	if !sc.conn.WaitClosed(scriptWait) {
		t.Error("Connection must be closed after timeout.")
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	conn := mocks.NewConn()
	e := New(WithDialer(&mocks.Dialer{Conn: conn}), WithTimeout(scriptWait))

	req, err := e.NewRequest("irc.example.org", "#packs", "PackBot", 42)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan result, 1)
	go func() {
		offer, err := req.Execute(ctx)
		done <- result{offer, err}
	}()

	sc := &script{t, conn}
	sc.expect("NICK ")
	sc.expect("USER ")
	cancel()

	res := <-done
	terr, ok := res.err.(*TimeoutError)
	if !ok {
		t.Fatalf("Expected TimeoutError, got %v", res.err)
	}
	if !terr.Cancelled {
		t.Error("Caller cancellation must be reported as cancelled.")
	}
	if !conn.WaitClosed(scriptWait) {
		t.Error("Connection must be closed after cancellation.")
	}
}

func TestNewRequestValidation(t *testing.T) {
	e := New()

	bad := []struct {
		server, channel, bot string
		pack                 uint64
	}{
		{"", "#c", "b", 1},
		{"s", "", "b", 1},
		{"s", "#c", "", 1},
		{"s", "#c", "b", 0},
	}
	for _, tt := range bad {
		if _, err := e.NewRequest(tt.server, tt.channel, tt.bot, tt.pack); err == nil {
			t.Errorf("NewRequest(%+v) should have failed", tt)
		}
	}

	req, err := e.NewRequest("irc.example.org", "packs", "bot", 1)
	if err != nil {
		t.Fatal(err)
	}
	if req.Channel != "#packs" {
		t.Errorf("Channel = %q, want auto-prefixed #packs", req.Channel)
	}
}
