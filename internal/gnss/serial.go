package gnss

import (
	"bufio"
	"context"
	"fmt"

	"go.bug.st/serial"

	"proxitrack/internal/radio"
	"proxitrack/pkg/logger"
)

// Port reads NMEA sentences off a serial GNSS receiver and publishes
// parsed fixes to the fix channel. It owns the serial.Port and is the
// only goroutine allowed to read from it.
type Port struct {
	port serial.Port
	fix  chan radio.GNSSFix
}

// Open opens the serial device at the given baud rate (8N1, matching
// typical NMEA receivers) and returns a Port ready for Monitor.
func Open(portName string, baudRate int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open gnss serial port %s: %w", portName, err)
	}
	return &Port{port: p, fix: make(chan radio.GNSSFix, 4)}, nil
}

// Fix satisfies radio.GNSSSource.
func (p *Port) Fix() <-chan radio.GNSSFix {
	return p.fix
}

// Close closes the underlying serial port.
func (p *Port) Close() error {
	return p.port.Close()
}

// Monitor reads NMEA lines until ctx is cancelled, parsing and
// publishing each recognized sentence. Malformed or uninteresting lines
// are skipped silently, matching the transient-loss policy for radio
// sources.
func (p *Port) Monitor(ctx context.Context) error {
	defer p.Close()
	scan := bufio.NewScanner(p.port)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scan.Scan() {
			return scan.Err()
		}
		fix, ok := ParseSentence(scan.Text())
		if !ok {
			continue
		}

		select {
		case p.fix <- fix:
		case <-ctx.Done():
			return nil
		default:
			logger.Debug("gnss fix channel full, dropping stale fix")
		}
	}
}
