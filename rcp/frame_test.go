package rcp

import (
	"bytes"
	"testing"

	"github.com/brightgate/dvtree/attr"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	f := Frame{
		Action:      ActionPut,
		NodeEvent:   1,
		AttrEvent:   2,
		ID:          42,
		Node:        "/svc/net/",
		Key:         "port",
		Type:        attr.Int,
		Value:       "8080",
		Ranges:      "0,65535",
		Flags:       int32(attr.ReadOnly),
		Description: "listen port",
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf, DefaultMaxFrameSize)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != f {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestReadFrameRejectsOversizedBody(t *testing.T) {
	f := Frame{Action: ActionGet, Node: "/a/", Key: "k"}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := ReadFrame(&buf, 4); err != ErrFrameTooLarge {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}
