package rcp

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/brightgate/dvtree/attr"
)

// Frame is the decoded form of a ConfigActionData message (spec §6). All
// string fields default to "" when absent on the wire.
type Frame struct {
	Action      Action
	NodeEvent   uint8
	AttrEvent   uint8
	ID          uint64
	Node        string
	Key         string
	Type        attr.Type
	Value       string
	Ranges      string
	Flags       int32
	Description string
}

// DefaultMaxFrameSize is the spec-suggested 64 KiB cap on a single frame's
// body, before the 4-byte length prefix.
const DefaultMaxFrameSize = 64 * 1024

// ErrFrameTooLarge is returned by ReadFrame when the advertised body
// length exceeds the configured maximum.
var ErrFrameTooLarge = errors.New("rcp: frame exceeds maximum size")

// WriteFrame encodes f as a length-prefixed body and writes it to w. The
// wire format is a small hand-rolled binary codec (see DESIGN.md: no pack
// example wires FlatBuffers/protobuf, so this follows
// transitorykris-kbgp's stream.go idiom of big-endian length-prefixed
// fields over encoding/binary) rather than literal FlatBuffers, while
// carrying the exact ConfigActionData field set spec §6 requires.
func WriteFrame(w io.Writer, f Frame) error {
	body := encodeBody(f)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))

	if _, err := w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "rcp: write frame header")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "rcp: write frame body")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r. maxSize bounds the
// body length; a frame claiming more is rejected with ErrFrameTooLarge
// without reading the (possibly malicious) body.
func ReadFrame(r io.Reader, maxSize int) (Frame, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if maxSize > 0 && int(n) > maxSize {
		return Frame{}, ErrFrameTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, errors.Wrap(err, "rcp: read frame body")
	}

	f, err := decodeBody(body)
	if err != nil {
		return Frame{}, errors.Wrap(err, "rcp: decode frame")
	}
	return f, nil
}

// encodeBody lays out: action u8, nodeEvents u8, attrEvents u8, id u64,
// type i8, flags i32, then five length-prefixed (u32) UTF-8 strings:
// node, key, value, ranges, description.
func encodeBody(f Frame) []byte {
	strs := [][]byte{[]byte(f.Node), []byte(f.Key), []byte(f.Value), []byte(f.Ranges), []byte(f.Description)}

	size := 1 + 1 + 1 + 8 + 1 + 4
	for _, s := range strs {
		size += 4 + len(s)
	}

	buf := make([]byte, size)
	i := 0
	buf[i] = byte(f.Action)
	i++
	buf[i] = f.NodeEvent
	i++
	buf[i] = f.AttrEvent
	i++
	binary.BigEndian.PutUint64(buf[i:], f.ID)
	i += 8
	buf[i] = byte(f.Type)
	i++
	binary.BigEndian.PutUint32(buf[i:], uint32(f.Flags))
	i += 4

	for _, s := range strs {
		binary.BigEndian.PutUint32(buf[i:], uint32(len(s)))
		i += 4
		copy(buf[i:], s)
		i += len(s)
	}
	return buf
}

func decodeBody(body []byte) (Frame, error) {
	const fixedLen = 1 + 1 + 1 + 8 + 1 + 4
	if len(body) < fixedLen {
		return Frame{}, fmt.Errorf("rcp: frame too short: %d bytes", len(body))
	}

	var f Frame
	i := 0
	f.Action = Action(body[i])
	i++
	f.NodeEvent = body[i]
	i++
	f.AttrEvent = body[i]
	i++
	f.ID = binary.BigEndian.Uint64(body[i:])
	i += 8
	f.Type = attr.Type(int8(body[i]))
	i++
	f.Flags = int32(binary.BigEndian.Uint32(body[i:]))
	i += 4

	dests := []*string{&f.Node, &f.Key, &f.Value, &f.Ranges, &f.Description}
	for _, dst := range dests {
		s, n, err := readString(body, i)
		if err != nil {
			return Frame{}, err
		}
		*dst = s
		i = n
	}
	return f, nil
}

func readString(body []byte, i int) (string, int, error) {
	if i+4 > len(body) {
		return "", 0, fmt.Errorf("rcp: truncated string length at offset %d", i)
	}
	n := int(binary.BigEndian.Uint32(body[i:]))
	i += 4
	if n < 0 || i+n > len(body) {
		return "", 0, fmt.Errorf("rcp: truncated string body at offset %d", i)
	}
	return string(body[i : i+n]), i + n, nil
}
