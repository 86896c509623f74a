/*
Package xdcc negotiates file transfer endpoints with XDCC bots over IRC.

A request connects to a server with a throwaway nickname, joins the pack
channel, sends the bot a CTCP XDCC SEND command and waits for the DCC SEND
offer naming the transfer address, port, filename and size. Transferring the
file itself is up to the caller.

	offer, err := xdcc.Fetch(ctx, "irc.example.org", "#packs", "PackBot", 42)
	if err != nil {
		// handle engine.TimeoutError, engine.JoinError, ...
	}
	fmt.Println(offer.Addr, offer.Port, offer.Filename)

For reuse across requests and finer control (TLS, SOCKS proxy, timeout,
logging) construct an engine.Engine directly.
*/
package xdcc

import (
	"context"

	"github.com/irctools/xdcc/dcc"
	"github.com/irctools/xdcc/engine"
)

// Fetch performs a single XDCC request with default settings and returns the
// bot's transfer offer.
func Fetch(ctx context.Context, server, channel, bot string, pack uint64) (*dcc.Offer, error) {
	req, err := engine.New().NewRequest(server, channel, bot, pack)
	if err != nil {
		return nil, err
	}
	return req.Execute(ctx)
}
