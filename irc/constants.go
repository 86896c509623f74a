package irc

// IRC commands used by the request engine. These are 1-1 constant to string
// lookups for ease of use when matching events.
const (
	NICK    = "NICK"
	USER    = "USER"
	JOIN    = "JOIN"
	PRIVMSG = "PRIVMSG"
	NOTICE  = "NOTICE"
	PING    = "PING"
	PONG    = "PONG"
	QUIT    = "QUIT"
	ERROR   = "ERROR"
)

// Numeric replies interpreted during registration and channel join. Anything
// not listed here passes through the session uninterpreted.
const (
	RPL_WELCOME    = "001"
	RPL_NAMREPLY   = "353"
	RPL_ENDOFNAMES = "366"

	ERR_NOSUCHCHANNEL    = "403"
	ERR_TOOMANYCHANNELS  = "405"
	ERR_ERRONEUSNICKNAME = "432"
	ERR_NICKNAMEINUSE    = "433"
	ERR_NICKCOLLISION    = "436"
	ERR_CHANNELISFULL    = "471"
	ERR_INVITEONLYCHAN   = "473"
	ERR_BANNEDFROMCHAN   = "474"
	ERR_BADCHANNELKEY    = "475"
)
