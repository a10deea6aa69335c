package classify

import (
	"bytes"
	"compress/flate"
	"testing"

	"github.com/bililive/danmaku-client/internal/protocol"
)

func decodeHeader(t *testing.T, frame []byte) protocol.Header {
	t.Helper()
	var hdr [protocol.HeaderSize]byte
	copy(hdr[:], frame[:protocol.HeaderSize])
	h, err := protocol.DecodeHeader(hdr)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	return h
}

func TestClassify_Popularity(t *testing.T) {
	body := []byte{0x00, 0x00, 0x07, 0xD0} // 2000
	h := protocol.Header{Action: protocol.ActionPopularity, ProtocolVersion: 0, PacketLength: uint32(protocol.HeaderSize + len(body))}

	got, err := Classify(h, body)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	p, ok := got[0].(Popularity)
	if !ok || p.Value != 2000 {
		t.Fatalf("got %#v, want Popularity{2000}", got[0])
	}
}

func TestClassify_RawMessage_PlainJSON(t *testing.T) {
	body := []byte(`{"cmd":"DANMU_MSG","info":[]}`)
	h := protocol.Header{Action: protocol.ActionMessage, ProtocolVersion: 0}

	got, err := Classify(h, body)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	raw, ok := got[0].(RawMessage)
	if !ok || string(raw.JSON) != string(body) {
		t.Fatalf("got %#v", got[0])
	}
}

func TestClassify_RawMessage_MalformedJSONDropped(t *testing.T) {
	// A malformed JSON body is a per-frame decode error: no event is
	// delivered for it and the caller moves on (spec.md §4.5/§7/§8
	// scenario 4).
	body := []byte(`{not json`)
	h := protocol.Header{Action: protocol.ActionMessage, ProtocolVersion: 0}
	got, err := Classify(h, body)
	if err == nil {
		t.Fatalf("expected a decode error for malformed JSON, got got=%#v", got)
	}
	if got != nil {
		t.Fatalf("got %#v, want nil", got)
	}
}

func deflateBytes(t *testing.T, p []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write(p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestClassify_ProtocolVersion2_RecursesSubFrames(t *testing.T) {
	sub1 := protocol.EncodeWithBody(protocol.ActionMessage, 0, []byte(`{"cmd":"A"}`))
	sub2 := protocol.EncodeWithBody(protocol.ActionMessage, 0, []byte(`{"cmd":"B"}`))
	plain := append(append([]byte{}, sub1...), sub2...)
	compressed := deflateBytes(t, plain)

	h := protocol.Header{Action: protocol.ActionMessage, ProtocolVersion: 2}
	got, err := Classify(h, compressed)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].(RawMessage).JSON == nil || got[1].(RawMessage).JSON == nil {
		t.Fatalf("expected two raw messages, got %#v", got)
	}
	if string(got[0].(RawMessage).JSON) != `{"cmd":"A"}` {
		t.Fatalf("first = %s", got[0].(RawMessage).JSON)
	}
	if string(got[1].(RawMessage).JSON) != `{"cmd":"B"}` {
		t.Fatalf("second = %s", got[1].(RawMessage).JSON)
	}
}

func TestClassify_ProtocolVersion3_ReportsDecodeErrorNotPanic(t *testing.T) {
	h := protocol.Header{Action: protocol.ActionMessage, ProtocolVersion: 3}
	_, err := Classify(h, []byte{0x01, 0x02})
	if err == nil {
		t.Fatalf("expected an error for unwired brotli decoding")
	}
}

func TestClassify_UnknownAction_DroppedSilently(t *testing.T) {
	h := protocol.Header{Action: 999}
	got, err := Classify(h, []byte("anything"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != nil {
		t.Fatalf("got %#v, want nil", got)
	}
}
