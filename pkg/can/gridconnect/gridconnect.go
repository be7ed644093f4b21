// Package gridconnect implements the GridConnect ASCII serial envelope for
// CAN frames (spec.md §4.1, §6): ":X" + 8 hex header digits + "N" + 2*len
// hex payload digits + ";".
package gridconnect

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/go-openlcb/pkg/can"
)

// Format renders a single Frame as a GridConnect frame string, always
// upper-case hex, matching spec.md scenario 6 (":X19490333N;" round-trips).
func Format(f can.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":X%08XN", f.Header)
	for _, d := range f.Payload() {
		fmt.Fprintf(&b, "%02X", d)
	}
	b.WriteByte(';')
	return b.String()
}

// Parse splits s on frame boundaries and decodes each GridConnect frame.
// Whitespace between frames is permitted. Hex digits are accepted
// case-insensitively. Any malformed frame rejects the whole input: Parse
// logs a diagnostic and returns an empty slice, never a partial result
// (spec.md §6 "malformed frames cause the whole input to be rejected").
func Parse(s string) []can.Frame {
	var frames []can.Frame
	for _, tok := range strings.Fields(s) {
		if !strings.HasPrefix(tok, ":") {
			log.WithField("frame", tok).Warn("gridconnect: frame does not start with ':', rejecting input")
			return nil
		}
		for _, part := range splitFrames(tok) {
			if part == "" {
				continue
			}
			f, err := parseOne(part)
			if err != nil {
				log.WithError(err).WithField("frame", part).Warn("gridconnect: malformed frame, rejecting input")
				return nil
			}
			frames = append(frames, f)
		}
	}
	return frames
}

// splitFrames breaks a token containing one or more ':'-delimited frames
// into their ';'-terminated pieces (without the leading ':').
func splitFrames(tok string) []string {
	var parts []string
	for _, seg := range strings.Split(tok, ":") {
		if seg == "" {
			continue
		}
		parts = append(parts, seg)
	}
	return parts
}

func parseOne(seg string) (can.Frame, error) {
	if !strings.HasSuffix(seg, ";") {
		return can.Frame{}, fmt.Errorf("gridconnect: missing terminating ';'")
	}
	seg = strings.TrimSuffix(seg, ";")

	if len(seg) < 1 || (seg[0] != 'X' && seg[0] != 'x') {
		return can.Frame{}, fmt.Errorf("gridconnect: expected frame-type 'X'")
	}
	seg = seg[1:]

	if len(seg) < 8 {
		return can.Frame{}, fmt.Errorf("gridconnect: header too short")
	}
	headerHex, rest := seg[:8], seg[8:]
	header, err := parseHex32(headerHex)
	if err != nil {
		return can.Frame{}, fmt.Errorf("gridconnect: bad header: %w", err)
	}

	if len(rest) < 1 || (rest[0] != 'N' && rest[0] != 'n') {
		return can.Frame{}, fmt.Errorf("gridconnect: expected payload marker 'N'")
	}
	rest = rest[1:]

	if len(rest)%2 != 0 {
		return can.Frame{}, fmt.Errorf("gridconnect: odd number of payload hex digits")
	}
	if len(rest) > 16 {
		return can.Frame{}, fmt.Errorf("gridconnect: payload too long")
	}

	f := can.Frame{Header: header}
	for i := 0; i < len(rest); i += 2 {
		b, err := parseHexByte(rest[i : i+2])
		if err != nil {
			return can.Frame{}, fmt.Errorf("gridconnect: bad payload byte: %w", err)
		}
		f.Data[i/2] = b
	}
	f.Len = uint8(len(rest) / 2)
	return f, nil
}

func parseHex32(s string) (uint32, error) {
	var v uint32
	for i := 0; i < len(s); i++ {
		d, err := hexDigit(s[i])
		if err != nil {
			return 0, err
		}
		v = v<<4 | uint32(d)
	}
	return v, nil
}

func parseHexByte(s string) (byte, error) {
	hi, err := hexDigit(s[0])
	if err != nil {
		return 0, err
	}
	lo, err := hexDigit(s[1])
	if err != nil {
		return 0, err
	}
	return hi<<4 | lo, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}
