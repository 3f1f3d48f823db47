package samsung

import "errors"

var (
	// ErrInvalidKey is returned before any network activity when a key is not in the catalog
	ErrInvalidKey = errors.New("invalid key")

	// ErrConnection covers dial failures and transport errors on an open session
	ErrConnection = errors.New("connection error")

	// ErrProtocol is returned when the TV answers with anything but ms.channel.connect
	ErrProtocol = errors.New("protocol error")

	// ErrEmptyQueue is returned when there is nothing to send
	ErrEmptyQueue = errors.New("no keys to send")

	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotReady = errors.New("session not ready")
)
