package server

import (
	"net"
	"time"
)

const keepAlivePeriod = 3 * time.Minute

// tcpKeepAliveListener turns on TCP keep-alives for every accepted connection,
// so dead peers are eventually dropped.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln *tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}
