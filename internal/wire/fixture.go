package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// fixtureRecord is one recorded (header, data) datagram pair, hex-encoded
// for readability in a checked-in fixture file.
type fixtureRecord struct {
	Header string `json:"header"`
	Data   string `json:"data"`
}

// LoadFixture reads a JSON array of recorded (header, data) datagram pairs
// and flattens them into the alternating sequence a Reader expects: header,
// data, header, data, ... Used by the CLI's replay mode to drive the
// pipeline from a recorded capture instead of a live socket.
func LoadFixture(path string) ([]MockDatagram, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wire: read fixture %q: %w", path, err)
	}

	var records []fixtureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("wire: parse fixture %q: %w", path, err)
	}

	datagrams := make([]MockDatagram, 0, len(records)*2)
	for i, rec := range records {
		header, err := hex.DecodeString(rec.Header)
		if err != nil {
			return nil, fmt.Errorf("wire: fixture record %d: decode header: %w", i, err)
		}
		data, err := hex.DecodeString(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("wire: fixture record %d: decode data: %w", i, err)
		}
		datagrams = append(datagrams, MockDatagram{Data: header}, MockDatagram{Data: data})
	}
	return datagrams, nil
}
