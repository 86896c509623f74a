package engine

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/irctools/xdcc/dcc"
	"github.com/irctools/xdcc/inet"
	"github.com/irctools/xdcc/irc"
	"github.com/irctools/xdcc/parse"
)

// phase is the session's position in the request lifecycle. Terminal
// outcomes are represented by returning from run, not by phase values.
type phase int

const (
	phaseRegistering phase = iota
	phaseJoining
	phaseRequesting
	phaseAwaitingOffer
)

var phaseStrings = map[phase]string{
	phaseRegistering:   "registering",
	phaseJoining:       "joining channel",
	phaseRequesting:    "sending request",
	phaseAwaitingOffer: "awaiting offer",
}

// String returns the phase description used in timeout errors and logs.
func (p phase) String() string { return phaseStrings[p] }

// lineConn is the connection surface the session drives. *inet.Client
// satisfies it; tests substitute scripted implementations.
type lineConn interface {
	ReadLine(deadline time.Time) ([]byte, error)
	WriteLine(line string, deadline time.Time) error
	Close() error
}

// session drives one connection through registration, join, request and the
// offer wait. It owns the connection exclusively and runs as a sequential
// read/react loop; the single deadline set at construction bounds every
// suspension so a slow phase cannot extend the total wait.
type session struct {
	conn     lineConn
	log      log15.Logger
	req      *Request
	deadline time.Time
	ctx      context.Context

	phase        phase
	nick         string
	nickAttempts int
	maxNickTries int
}

// run executes the state machine to a terminal state. The connection is
// closed by the caller on every exit path.
func (s *session) run(ctx context.Context) (*dcc.Offer, error) {
	s.ctx = ctx
	if err := s.register(); err != nil {
		return nil, err
	}
	if err := s.join(); err != nil {
		return nil, err
	}
	if err := s.request(); err != nil {
		return nil, err
	}
	return s.await()
}

// register sends NICK and USER and waits for the welcome numeric. Nickname
// collisions regenerate the nick and retry up to the configured limit.
func (s *session) register() error {
	s.phase = phaseRegistering

	s.nick = s.req.eng.nicks.Next()
	s.nickAttempts = 1
	username := s.req.eng.nicks.Next()

	s.log.Debug("registering", "nick", s.nick, "server", s.req.Server)

	if err := s.send(irc.RenderNick(s.nick)); err != nil {
		return err
	}
	if err := s.send(irc.RenderUser(username, username)); err != nil {
		return err
	}

	for {
		ev, err := s.next()
		if err != nil {
			return err
		}

		switch ev.Name {
		case irc.RPL_WELCOME:
			s.log.Debug("registered", "nick", s.nick)
			return nil

		case irc.ERR_NICKNAMEINUSE, irc.ERR_NICKCOLLISION,
			irc.ERR_ERRONEUSNICKNAME:
			if s.nickAttempts >= s.maxNickTries {
				return &RegistrationError{
					Attempts: s.nickAttempts,
					Code:     ev.Name,
				}
			}
			s.nick = s.req.eng.nicks.Next()
			s.nickAttempts++
			s.log.Debug("nick collision, retrying",
				"nick", s.nick, "attempt", s.nickAttempts)
			if err := s.send(irc.RenderNick(s.nick)); err != nil {
				return err
			}

		case irc.ERROR:
			return &ConnError{Server: s.req.Server,
				Err: serverError(ev)}
		}
	}
}

// join sends JOIN and waits for confirmation: our own echoed JOIN or a names
// reply for the channel. Explicit rejection numerics fail the session.
func (s *session) join() error {
	s.phase = phaseJoining

	if err := s.send(irc.RenderJoin(s.req.Channel)); err != nil {
		return err
	}

	for {
		ev, err := s.next()
		if err != nil {
			return err
		}

		switch ev.Name {
		case irc.JOIN:
			if irc.EqualFold(ev.Nick(), s.nick) &&
				irc.EqualFold(ev.Target(), s.req.Channel) {
				s.log.Debug("joined", "channel", s.req.Channel)
				return nil
			}

		case irc.RPL_NAMREPLY, irc.RPL_ENDOFNAMES:
			if eventMentions(ev, s.req.Channel) {
				s.log.Debug("joined", "channel", s.req.Channel)
				return nil
			}

		case irc.ERR_NOSUCHCHANNEL, irc.ERR_TOOMANYCHANNELS,
			irc.ERR_CHANNELISFULL, irc.ERR_INVITEONLYCHAN,
			irc.ERR_BANNEDFROMCHAN, irc.ERR_BADCHANNELKEY:
			if eventMentions(ev, s.req.Channel) {
				return &JoinError{
					Channel: s.req.Channel,
					Code:    ev.Name,
					Reason:  lastArg(ev),
				}
			}

		case irc.ERROR:
			return &ConnError{Server: s.req.Server,
				Err: serverError(ev)}
		}
	}
}

// request addresses the bot with the CTCP XDCC pack request.
func (s *session) request() error {
	s.phase = phaseRequesting

	data := "SEND " + strconv.FormatUint(s.req.Pack, 10)
	s.log.Debug("requesting pack", "bot", s.req.Bot, "pack", s.req.Pack)
	return s.send(irc.RenderCTCP(s.req.Bot, "XDCC", data))
}

// await consumes traffic until the target bot delivers a parseable DCC SEND
// offer. Non-matching traffic is inert; malformed offers are skipped; a
// plain NOTICE from the bot addressed to us is an explicit denial.
func (s *session) await() (*dcc.Offer, error) {
	s.phase = phaseAwaitingOffer

	for {
		ev, err := s.next()
		if err != nil {
			return nil, err
		}

		if !irc.EqualFold(ev.Nick(), s.req.Bot) {
			continue
		}

		if ev.IsCTCP() {
			tag, data := ev.UnpackCTCP()
			if !strings.EqualFold(tag, "DCC") {
				continue
			}
			offer, err := dcc.ParseSend(data)
			if err != nil {
				s.log.Debug("ignoring unusable DCC payload", "err", err)
				continue
			}
			s.log.Debug("offer received", "filename", offer.Filename,
				"addr", offer.Addr, "port", offer.Port)
			return offer, nil
		}

		if ev.Name == irc.NOTICE && irc.EqualFold(ev.Target(), s.nick) {
			return nil, &BotRejectedError{
				Bot:    s.req.Bot,
				Reason: ev.Message(),
			}
		}
	}
}

// next reads and decodes the next inbound event, answering PINGs and
// skipping malformed lines. Every error it returns is terminal for the
// session and already classified into the engine taxonomy.
func (s *session) next() (*irc.Event, error) {
	for {
		line, err := s.conn.ReadLine(s.deadline)
		if err != nil {
			return nil, s.classify(err)
		}

		ev, err := parse.Parse(line)
		if err != nil {
			s.log.Debug("skipping malformed line", "line", string(line))
			continue
		}

		if ev.Name == irc.PING {
			if err := s.send(irc.RenderPong(lastArg(ev))); err != nil {
				return nil, err
			}
			continue
		}

		return ev, nil
	}
}

// send renders and writes one line. It takes the (line, error) pair from a
// Render call directly.
func (s *session) send(line string, renderErr error) error {
	if renderErr != nil {
		return renderErr
	}
	if err := s.conn.WriteLine(line, s.deadline); err != nil {
		return s.classify(err)
	}
	return nil
}

// classify maps raw connection errors into the engine taxonomy, consulting
// the context to distinguish caller cancellation from deadline expiry.
func (s *session) classify(err error) error {
	if s.ctx.Err() != nil {
		return &TimeoutError{
			Phase:     s.phase.String(),
			Cancelled: s.ctx.Err() == context.Canceled,
		}
	}
	if err == inet.ErrLineTooLong {
		return &ProtocolError{Err: err}
	}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return &TimeoutError{Phase: s.phase.String()}
	}
	return &ConnError{Server: s.req.Server, Err: err}
}

// serverError extracts the reason text from a server ERROR event.
func serverError(ev *irc.Event) error {
	return &protocolText{text: lastArg(ev)}
}

type protocolText struct{ text string }

func (p *protocolText) Error() string { return "server error: " + p.text }

// eventMentions reports whether any parameter of the event names the channel
// under rfc1459 folding. Numeric replies place the channel at varying
// positions, so every parameter is checked.
func eventMentions(ev *irc.Event, channel string) bool {
	for _, arg := range ev.Args {
		if irc.EqualFold(arg, channel) {
			return true
		}
	}
	return false
}

// lastArg returns the trailing parameter of an event, or empty.
func lastArg(ev *irc.Event) string {
	if len(ev.Args) == 0 {
		return ""
	}
	return ev.Args[len(ev.Args)-1]
}
