/*
Package engine exposes the XDCC request engine: a reusable factory that
connects to an IRC server, joins a channel, addresses a bot with a pack
request and waits for the bot's DCC SEND offer.

The engine never transfers file bytes; it only negotiates the transfer
endpoint and returns it.
*/
package engine

import (
	"context"
	"crypto/tls"
	"io"
	"strings"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/irctools/xdcc/dcc"
	"github.com/irctools/xdcc/inet"
	"github.com/irctools/xdcc/nick"
)

const (
	// defaultTimeout bounds a whole request when neither an option nor a
	// context deadline says otherwise.
	defaultTimeout = 30 * time.Second
	// defaultNickTries is how many nicknames are attempted before giving
	// up on registration.
	defaultNickTries = 3
)

// Engine creates and executes XDCC requests. It is safe for concurrent use;
// every execution owns its own connection and session. The zero value is not
// usable, construct with New.
type Engine struct {
	timeout   time.Duration
	nickTries int
	logger    log15.Logger
	tlsConf   *tls.Config
	proxyAddr string
	dialer    inet.Dialer
	nicks     *nick.Generator
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the overall budget for one request: connect, register,
// join, request and offer wait all share it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log15.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTLS enables TLS transport using the given configuration.
func WithTLS(conf *tls.Config) Option {
	return func(e *Engine) { e.tlsConf = conf }
}

// WithProxy routes connections through a SOCKS5 proxy at addr.
func WithProxy(addr string) Option {
	return func(e *Engine) { e.proxyAddr = addr }
}

// WithNickRetries sets how many nicknames are tried before registration
// fails on persistent collisions.
func WithNickRetries(n int) Option {
	return func(e *Engine) { e.nickTries = n }
}

// WithDialer overrides the transport used to reach servers. Tests use this
// to substitute scripted connections.
func WithDialer(d inet.Dialer) Option {
	return func(e *Engine) { e.dialer = d }
}

// WithEntropy sets the entropy source for nickname generation, letting tests
// pin deterministic sequences.
func WithEntropy(src io.Reader) Option {
	return func(e *Engine) { e.nicks = nick.NewSource(src) }
}

// New constructs an Engine with the given options applied over defaults.
func New(opts ...Option) *Engine {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())

	e := &Engine{
		timeout:   defaultTimeout,
		nickTries: defaultNickTries,
		logger:    logger,
		nicks:     nick.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one immutable pack request. Create through NewRequest and
// consume with exactly one Execute.
type Request struct {
	eng *Engine

	// Server is the IRC server address as host or host:port.
	Server string
	// Channel is the channel to join, '#'-prefixed if no prefix was given.
	Channel string
	// Bot is the nickname of the bot holding the pack.
	Bot string
	// Pack is the pack number to request, always positive.
	Pack uint64
}

// NewRequest validates the request parameters and binds them to the engine.
func (e *Engine) NewRequest(server, channel, bot string, pack uint64) (*Request, error) {
	switch {
	case server == "":
		return nil, errBadRequest("empty server address")
	case channel == "":
		return nil, errBadRequest("empty channel")
	case bot == "":
		return nil, errBadRequest("empty bot nickname")
	case pack == 0:
		return nil, errBadRequest("pack number must be positive")
	}

	if !strings.HasPrefix(channel, "#") && !strings.HasPrefix(channel, "&") {
		channel = "#" + channel
	}

	return &Request{
		eng:     e,
		Server:  server,
		Channel: channel,
		Bot:     bot,
		Pack:    pack,
	}, nil
}

// errBadRequest reports invalid request parameters.
type errBadRequest string

func (e errBadRequest) Error() string { return "engine: " + string(e) }

// Execute runs the request to completion: dial, register, join, request the
// pack and wait for the offer. The context cancels the wait early; either
// way the connection is closed before Execute returns.
func (r *Request) Execute(ctx context.Context) (*dcc.Offer, error) {
	e := r.eng

	deadline := time.Now().Add(e.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	client, err := inet.Dial(r.Server, inet.Config{
		TLS:         e.tlsConf,
		ProxyAddr:   e.proxyAddr,
		DialTimeout: time.Until(deadline),
		Dialer:      e.dialer,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Phase: "connecting",
				Cancelled: ctx.Err() == context.Canceled}
		}
		return nil, &ConnError{Server: r.Server, Err: err}
	}
	defer client.Close()

	// Unblock the session's reads if the caller bails out early.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-watchDone:
		}
	}()

	sess := &session{
		conn:         client,
		log:          e.logger.New("server", r.Server, "bot", r.Bot),
		req:          r,
		deadline:     deadline,
		maxNickTries: e.nickTries,
	}

	offer, err := sess.run(ctx)
	if err != nil {
		e.logger.Debug("request failed", "server", r.Server, "err", err)
		return nil, err
	}
	return offer, nil
}
