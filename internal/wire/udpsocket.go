package wire

import (
	"net"
	"time"
)

// UDPSocket abstracts the UDP operations the Reader needs, so tests can
// drive the pipeline without a real network socket.
type UDPSocket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

// UDPSocketFactory creates a UDPSocket bound to a local address.
type UDPSocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// realUDPSocket wraps *net.UDPConn to implement UDPSocket.
type realUDPSocket struct {
	conn *net.UDPConn
}

func (r *realUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	return r.conn.ReadFromUDP(b)
}

func (r *realUDPSocket) SetReadDeadline(t time.Time) error {
	return r.conn.SetReadDeadline(t)
}

func (r *realUDPSocket) Close() error {
	return r.conn.Close()
}

func (r *realUDPSocket) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// RealUDPSocketFactory creates sockets backed by net.ListenUDP.
type RealUDPSocketFactory struct{}

// ListenUDP binds a real UDP socket.
func (RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return &realUDPSocket{conn: conn}, nil
}
