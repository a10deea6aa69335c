package protocol

// EncodeControl builds an empty-body frame: just the 16-byte header with
// protocol_version 2, so EncodeControl(ActionHeartbeat) equals HeartbeatFrame.
func EncodeControl(action uint32) []byte {
	buf := make([]byte, HeaderSize)
	putHeader(buf, HeaderSize, 2, action)
	return buf
}

// EncodeWithBody copies the header and body into a single contiguous
// buffer, so the caller can hand the whole frame to one Transport.Send call.
func EncodeWithBody(action uint32, protocolVersion uint16, body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	putHeader(buf, uint32(HeaderSize+len(body)), protocolVersion, action)
	copy(buf[HeaderSize:], body)
	return buf
}

// HeartbeatFrame is the fixed 16-byte literal sent on every heartbeat tick:
// action=2, protocol_version=2, empty body.
var HeartbeatFrame = []byte{
	0x00, 0x00, 0x00, 0x10,
	0x00, 0x10,
	0x00, 0x02,
	0x00, 0x00, 0x00, 0x02,
	0x00, 0x00, 0x00, 0x01,
}

// JoinRoom is the UTF-8 JSON body of an action=7 join frame.
type JoinRoom struct {
	UID       int64  `json:"uid"`
	RoomID    int64  `json:"roomid"`
	ProtoVer  int    `json:"protover"`
	Platform  string `json:"platform"`
	ClientVer string `json:"clientver"`
	Type      int    `json:"type"`
	Key       string `json:"key"`
}

// NewJoinRoom fills in the fixed platform/clientver/type fields the wire
// protocol expects alongside the caller-supplied identity and token.
func NewJoinRoom(uid, roomID int64, protoVer int, key string) JoinRoom {
	return JoinRoom{
		UID:       uid,
		RoomID:    roomID,
		ProtoVer:  protoVer,
		Platform:  "web",
		ClientVer: "1.13.4",
		Type:      2,
		Key:       key,
	}
}
