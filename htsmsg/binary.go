package htsmsg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lithdew/bytesutil"
)

const (
	typeMap  = 1
	typeS64  = 2
	typeStr  = 3
	typeBin  = 4
	typeList = 5
)

// MaxFrameLen bounds the body length a parser will buffer for. Frames
// advertising more than this are treated as malformed.
const MaxFrameLen = 16 << 20

// AppendTo serializes the message, frame prefix included, and appends
// the result to dst.
func (m *Message) AppendTo(dst []byte) []byte {
	off := len(dst)
	dst = bytesutil.AppendUint32BE(dst, 0)
	dst = appendFields(dst, m)
	binary.BigEndian.PutUint32(dst[off:off+4], uint32(len(dst)-off-4))
	return dst
}

func appendFields(dst []byte, m *Message) []byte {
	for name, v := range m.fields {
		dst = appendField(dst, name, v)
	}
	return dst
}

func appendField(dst []byte, name string, v any) []byte {
	typ, data := encodeValue(v)
	dst = append(dst, typ, uint8(len(name)))
	dst = bytesutil.AppendUint32BE(dst, uint32(len(data)))
	dst = append(dst, name...)
	dst = append(dst, data...)
	return dst
}

func encodeValue(v any) (byte, []byte) {
	switch t := v.(type) {
	case int64:
		return typeS64, appendS64(nil, t)
	case string:
		return typeStr, []byte(t)
	case []byte:
		return typeBin, t
	case *Message:
		return typeMap, appendFields(nil, t)
	case []any:
		var data []byte
		for _, elem := range t {
			data = appendField(data, "", elem)
		}
		return typeList, data
	default:
		panic(fmt.Sprintf("htsmsg: unsupported field type %T", v))
	}
}

// Integers travel little-endian with trailing zero bytes trimmed; zero
// encodes as zero-length data.
func appendS64(dst []byte, v int64) []byte {
	u := uint64(v)
	for u != 0 {
		dst = append(dst, byte(u))
		u >>= 8
	}
	return dst
}

func decodeS64(data []byte) (int64, error) {
	if len(data) > 8 {
		return 0, fmt.Errorf("htsmsg: integer field of %d bytes", len(data))
	}
	var u uint64
	for i := len(data) - 1; i >= 0; i-- {
		u = u<<8 | uint64(data[i])
	}
	return int64(u), nil
}

// Next consumes at most one complete message from buf. It returns
// (nil, buf, nil) until a whole frame has been buffered, and otherwise
// the decoded message along with the unconsumed remainder. The result is
// independent of how the byte stream was split across calls.
func Next(buf []byte) (*Message, []byte, error) {
	if len(buf) < 4 {
		return nil, buf, nil
	}
	n := bytesutil.Uint32BE(buf[:4])
	if n > MaxFrameLen {
		return nil, buf, fmt.Errorf("htsmsg: frame of %d bytes exceeds limit", n)
	}
	if uint32(len(buf)-4) < n {
		return nil, buf, nil
	}
	msg, err := parseFields(buf[4 : 4+n])
	if err != nil {
		return nil, buf, err
	}
	return msg, buf[4+n:], nil
}

func parseFields(buf []byte) (*Message, error) {
	m := &Message{fields: make(map[string]any)}
	for len(buf) > 0 {
		if len(buf) < 6 {
			return nil, io.ErrUnexpectedEOF
		}
		typ, nameLen := buf[0], buf[1]
		dataLen := bytesutil.Uint32BE(buf[2:6])
		buf = buf[6:]

		if len(buf) < int(nameLen) {
			return nil, io.ErrUnexpectedEOF
		}
		var name string
		name, buf = string(buf[:nameLen]), buf[nameLen:]

		if uint32(len(buf)) < dataLen {
			return nil, io.ErrUnexpectedEOF
		}
		var data []byte
		data, buf = buf[:dataLen], buf[dataLen:]

		v, err := decodeValue(typ, data)
		if err != nil {
			return nil, err
		}
		if name != "" {
			m.fields[name] = v
		}
	}
	return m, nil
}

func parseList(buf []byte) ([]any, error) {
	var list []any
	for len(buf) > 0 {
		if len(buf) < 6 {
			return nil, io.ErrUnexpectedEOF
		}
		typ, nameLen := buf[0], buf[1]
		dataLen := bytesutil.Uint32BE(buf[2:6])
		buf = buf[6:]

		if len(buf) < int(nameLen) {
			return nil, io.ErrUnexpectedEOF
		}
		buf = buf[nameLen:] // element names carry no meaning

		if uint32(len(buf)) < dataLen {
			return nil, io.ErrUnexpectedEOF
		}
		var data []byte
		data, buf = buf[:dataLen], buf[dataLen:]

		v, err := decodeValue(typ, data)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func decodeValue(typ byte, data []byte) (any, error) {
	switch typ {
	case typeMap:
		return parseFields(data)
	case typeS64:
		return decodeS64(data)
	case typeStr:
		return string(data), nil
	case typeBin:
		// data aliases the caller's receive buffer
		return append([]byte(nil), data...), nil
	case typeList:
		return parseList(data)
	default:
		return nil, fmt.Errorf("htsmsg: unknown field type %d", typ)
	}
}
