package fanout

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/radar-pipeline/internal/monitoring"
)

const uartWriteTimeout = time.Second

// UARTSink writes newline-delimited JSON records to a serial port. A write
// that doesn't complete within uartWriteTimeout drops the record.
type UARTSink struct {
	port    serial.Port
	dropped uint64
}

// NewUARTSink opens portName at baud and returns a ready UARTSink.
func NewUARTSink(portName string, baud int) (*UARTSink, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("fanout: open serial port %s: %w", portName, err)
	}
	return &UARTSink{port: port}, nil
}

// Name implements Sink.
func (u *UARTSink) Name() string { return "uart" }

// Publish writes r as one line of JSON, dropping it if the write can't
// complete within uartWriteTimeout.
func (u *UARTSink) Publish(r Record) {
	body, err := json.Marshal(r.Rounded())
	if err != nil {
		monitoring.Logf("fanout: uart marshal failed: %v", err)
		atomic.AddUint64(&u.dropped, 1)
		return
	}
	body = append(body, '\n')

	done := make(chan error, 1)
	go func() {
		_, err := u.port.Write(body)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			monitoring.Logf("fanout: uart write failed: %v", err)
			atomic.AddUint64(&u.dropped, 1)
		}
	case <-time.After(uartWriteTimeout):
		monitoring.Logf("fanout: uart write timed out after %s", uartWriteTimeout)
		atomic.AddUint64(&u.dropped, 1)
	}
}

// Dropped returns the number of records dropped due to write failure or timeout.
func (u *UARTSink) Dropped() uint64 {
	return atomic.LoadUint64(&u.dropped)
}

// Close closes the serial port.
func (u *UARTSink) Close() error {
	return u.port.Close()
}
