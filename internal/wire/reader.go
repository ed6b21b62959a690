package wire

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/monitoring"
)

// ErrShortDatagram is returned by ReadFrame when a datagram's length does
// not match the expected size for its slot in the frame. The caller should
// treat this as a recoverable per-frame failure and try again.
var ErrShortDatagram = errors.New("wire: datagram length mismatch")

// ReadTimeout is the coarse UDP read deadline, short enough that shutdown
// stays responsive.
const ReadTimeout = 1 * time.Second

// Reader binds a UDP socket and reads one (header, data) datagram pair per
// logical frame. It holds no internal buffering and never resynchronizes
// across datagrams within a frame: a short or mismatched datagram is
// discarded, and the next ReadFrame call starts a fresh header.
type Reader struct {
	socket      UDPSocket
	lastFrameID uint16
	haveLast    bool
}

// NewReader binds a UDP socket at addr using factory.
func NewReader(factory UDPSocketFactory, addr string) (*Reader, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("wire: resolve %q: %w", addr, err)
	}
	sock, err := factory.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("wire: listen %q: %w", addr, err)
	}
	return &Reader{socket: sock}, nil
}

// Close releases the underlying socket.
func (r *Reader) Close() error {
	return r.socket.Close()
}

// ReadFrame performs the two-datagram read contract: a HeaderSize-byte
// header datagram, then a DataPacketSize-byte data datagram, in that order.
// A mismatched-length datagram is discarded and ErrShortDatagram returned;
// the caller should simply try again on the next loop iteration.
func (r *Reader) ReadFrame() (header, data []byte, err error) {
	header, err = r.readDatagram(HeaderSize)
	if err != nil {
		return nil, nil, err
	}

	data, err = r.readDatagram(DataPacketSize)
	if err != nil {
		return nil, nil, err
	}

	return header, data, nil
}

func (r *Reader) readDatagram(want int) ([]byte, error) {
	if err := r.socket.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return nil, fmt.Errorf("wire: set read deadline: %w", err)
	}

	buf := make([]byte, want+1) // +1 so an oversized datagram is detected, not silently truncated
	n, _, err := r.socket.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	if n != want {
		monitoring.Logf("wire: discarding datagram of %d bytes, want %d", n, want)
		return nil, ErrShortDatagram
	}
	return buf[:n], nil
}

// CheckFrameSequence logs a warning if frameID is not the successor of the
// previously observed frame ID, then records frameID for next time. It never
// rejects the frame: frame-loss is logged but the frame is still processed.
func (r *Reader) CheckFrameSequence(frameID uint16) {
	if r.haveLast && frameID != r.lastFrameID+1 {
		monitoring.Logf("wire: frame id gap, last=%d got=%d", r.lastFrameID, frameID)
	}
	r.lastFrameID = frameID
	r.haveLast = true
}
