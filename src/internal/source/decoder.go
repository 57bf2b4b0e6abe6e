// FILE: logbridge/src/internal/source/decoder.go
package source

import (
	"bytes"
	"fmt"

	"logbridge/src/internal/core"
)

// lineDecoder accumulates stream bytes and decodes newline-delimited JSON
// records. Empty lines are skipped; malformed lines are counted.
type lineDecoder struct {
	buffer        bytes.Buffer
	defaultTarget string
	maxBuffer     int
	maxLine       int
	maxBufferSeen int
}

func newLineDecoder(defaultTarget string) *lineDecoder {
	return &lineDecoder{
		defaultTarget: defaultTarget,
		maxBuffer:     core.MaxClientBufferSize,
		maxLine:       core.MaxLineLength,
	}
}

// feed appends data and returns every complete record. An error means the
// stream broke a size limit and the connection should be closed.
func (d *lineDecoder) feed(data []byte) (records []core.Record, invalid int, err error) {
	if err := d.write(data); err != nil {
		return nil, 0, err
	}

	for {
		idx := bytes.IndexByte(d.buffer.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(d.buffer.Next(idx+1), "\r\n")
		if len(line) == 0 {
			continue
		}
		if len(line) > d.maxLine {
			invalid++
			continue
		}

		rec, decErr := core.DecodeRecord(line, d.defaultTarget)
		if decErr != nil {
			invalid++
			continue
		}
		records = append(records, rec)
	}

	// Remaining partial line must still fit the line limit
	if d.buffer.Len() > d.maxLine {
		return records, invalid, fmt.Errorf("line too long without newline: %d bytes", d.buffer.Len())
	}

	return records, invalid, nil
}

// write buffers data without decoding it
func (d *lineDecoder) write(data []byte) error {
	if d.buffer.Len()+len(data) > d.maxBuffer {
		return fmt.Errorf("client buffer limit exceeded: %d bytes", d.buffer.Len()+len(data))
	}
	d.buffer.Write(data)
	if d.buffer.Len() > d.maxBufferSeen {
		d.maxBufferSeen = d.buffer.Len()
	}
	return nil
}

// nextLine pops one complete raw line, used during the auth handshake
func (d *lineDecoder) nextLine() ([]byte, bool) {
	idx := bytes.IndexByte(d.buffer.Bytes(), '\n')
	if idx < 0 {
		return nil, false
	}
	line := bytes.TrimRight(d.buffer.Next(idx+1), "\r\n")
	return bytes.Clone(line), true
}
