// Package classify maps decoded frames to the semantic events the
// dispatch fabric delivers: popularity counts, raw JSON command payloads,
// and (transparently) the nested sub-frames a compressed action=5 body
// carries for protocol_version 2.
package classify

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/bililive/danmaku-client/internal/protocol"
)

// ErrDecode marks a single malformed or unsupported frame. Per spec.md §7,
// decode errors are per-frame and never terminate the receive loop.
var ErrDecode = errors.New("classify: decode error")

// Popularity is emitted for action=3 frames: a 4-byte big-endian viewer
// count.
type Popularity struct {
	Value uint32
}

// RawMessage is emitted once per inner JSON document an action=5 frame
// carries (there can be more than one once protocol_version 2 sub-frames
// are unwrapped).
type RawMessage struct {
	JSON []byte
}

// Classify maps one decoded (header, body) pair to zero or more semantic
// values. action=8 (connect-ack) is not handled here — the connection core
// intercepts it before the classifier ever sees it, per spec.md §4.4.3.
//
// The returned slice holds Popularity and RawMessage values. A decode
// failure for one sub-frame does not abort decoding of its siblings.
func Classify(header protocol.Header, body []byte) ([]any, error) {
	switch header.Action {
	case protocol.ActionPopularity:
		if len(body) < 4 {
			return nil, errors.Wrap(ErrDecode, "popularity body shorter than 4 bytes")
		}
		return []any{Popularity{Value: binary.BigEndian.Uint32(body[:4])}}, nil

	case protocol.ActionMessage:
		return classifyMessage(header.ProtocolVersion, body)

	default:
		// Unknown action codes are dropped silently, per spec.md §4.5.
		return nil, nil
	}
}

func classifyMessage(protocolVersion uint16, body []byte) ([]any, error) {
	switch protocolVersion {
	case 0, 1:
		if !json.Valid(body) {
			return nil, errors.Wrap(ErrDecode, "malformed JSON body")
		}
		return []any{RawMessage{JSON: body}}, nil

	case 2:
		plain, err := inflateDeflate(body)
		if err != nil {
			return nil, errors.Wrap(ErrDecode, err.Error())
		}
		return classifySubFrames(plain)

	case 3:
		// Brotli-wrapped sub-frames: no brotli decoder is wired in (see
		// DESIGN.md), so this frame is reported and dropped, not the
		// whole session.
		return nil, errors.Wrap(ErrDecode, "protocol_version 3 (brotli) has no decoder wired in")

	default:
		return nil, errors.Wrapf(ErrDecode, "unknown protocol_version %d", protocolVersion)
	}
}

// classifySubFrames walks concatenated 16-byte-header sub-frames inside a
// decompressed v2 body and recurses into each one.
func classifySubFrames(buf []byte) ([]any, error) {
	var out []any
	for len(buf) > 0 {
		if len(buf) < protocol.HeaderSize {
			return out, errors.Wrap(ErrDecode, "truncated sub-frame header")
		}
		var hdr [protocol.HeaderSize]byte
		copy(hdr[:], buf[:protocol.HeaderSize])
		h, err := protocol.DecodeHeader(hdr)
		if err != nil {
			return out, errors.Wrap(ErrDecode, err.Error())
		}
		total := int(h.PacketLength)
		if total < protocol.HeaderSize || len(buf) < total {
			return out, errors.Wrap(ErrDecode, "sub-frame length exceeds buffer")
		}
		subBody := buf[protocol.HeaderSize:total]
		vals, err := Classify(h, subBody)
		if err != nil {
			// One bad sub-frame does not stop the rest from decoding.
			buf = buf[total:]
			continue
		}
		out = append(out, vals...)
		buf = buf[total:]
	}
	return out, nil
}

func inflateDeflate(body []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()
	return io.ReadAll(r)
}
