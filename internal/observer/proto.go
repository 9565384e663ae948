package observer

import (
	"encoding/binary"
	"errors"

	"mad-sand/internal/render"
)

// Version is sent in the hello message.
const Version = "1"

// Hello is the first, text, message on every connection.
type Hello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// Binary message kinds.
const (
	KindKeyframe byte = 'K'
	KindRegion   byte = 'R'
)

const headerLen = 9

var errShortMessage = errors.New("observer: short region message")

// encodeRegion packs r and its RGBA bytes as
// kind, minX, minY, width, height (little-endian uint16), pixels.
func encodeRegion(kind byte, f *render.Frame, r render.Rect) []byte {
	b := make([]byte, headerLen, headerLen+4*r.Area())
	b[0] = kind
	binary.LittleEndian.PutUint16(b[1:], uint16(r.MinX))
	binary.LittleEndian.PutUint16(b[3:], uint16(r.MinY))
	binary.LittleEndian.PutUint16(b[5:], uint16(r.Dx()))
	binary.LittleEndian.PutUint16(b[7:], uint16(r.Dy()))
	return f.RegionPixels(r, b)
}

// DecodeRegion unpacks a binary message.
func DecodeRegion(b []byte) (kind byte, r render.Rect, pix []byte, err error) {
	if len(b) < headerLen {
		return 0, r, nil, errShortMessage
	}
	kind = b[0]
	r.MinX = int(binary.LittleEndian.Uint16(b[1:]))
	r.MinY = int(binary.LittleEndian.Uint16(b[3:]))
	r.MaxX = r.MinX + int(binary.LittleEndian.Uint16(b[5:]))
	r.MaxY = r.MinY + int(binary.LittleEndian.Uint16(b[7:]))
	pix = b[headerLen:]
	if len(pix) != 4*r.Area() {
		return kind, r, nil, errShortMessage
	}
	return kind, r, pix, nil
}
