package serial

import "errors"

var (
	errNotConnected   = errors.New("serial: Send called before Connect")
	errOpenerRequired = errors.New("serial: no Opener registered, call SetOpener or use NewBusWithConn")
)
