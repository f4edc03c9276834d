package wire

import (
	"bytes"
	"fmt"
	"time"
)

// appendExt writes a MessagePack extension value to b: one of the fixext
// forms for lengths 1/2/4/8/16, else the ext8/16/32 form with an explicit
// length prefix. This is implemented by hand rather than through a generic
// extension helper so the envelope stays exactly as narrow as the formats
// this package actually emits.
func appendExt(b []byte, code int8, data []byte) []byte {
	n := len(data)
	switch n {
	case 1:
		b = append(b, 0xd4, byte(code))
	case 2:
		b = append(b, 0xd5, byte(code))
	case 4:
		b = append(b, 0xd6, byte(code))
	case 8:
		b = append(b, 0xd7, byte(code))
	case 16:
		b = append(b, 0xd8, byte(code))
	default:
		switch {
		case n < 1<<8:
			b = append(b, 0xc7, byte(n), byte(code))
		case n < 1<<16:
			b = append(b, 0xc8, byte(n>>8), byte(n), byte(code))
		default:
			b = append(b, 0xc9, byte(n>>24), byte(n>>16), byte(n>>8), byte(n), byte(code))
		}
	}
	return append(b, data...)
}

// readExt parses a MessagePack extension value from the front of b,
// returning the type code, the raw extension body, and the remaining
// bytes.
func readExt(b []byte) (code int8, data []byte, rest []byte, err error) {
	if len(b) < 2 {
		return 0, nil, nil, fmt.Errorf("wire: truncated extension header")
	}

	var n int
	var hdr int
	switch b[0] {
	case 0xd4:
		n, hdr = 1, 2
	case 0xd5:
		n, hdr = 2, 2
	case 0xd6:
		n, hdr = 4, 2
	case 0xd7:
		n, hdr = 8, 2
	case 0xd8:
		n, hdr = 16, 2
	case 0xc7:
		if len(b) < 3 {
			return 0, nil, nil, fmt.Errorf("wire: truncated ext8 header")
		}
		n, hdr = int(b[1]), 3
	case 0xc8:
		if len(b) < 4 {
			return 0, nil, nil, fmt.Errorf("wire: truncated ext16 header")
		}
		n, hdr = int(b[1])<<8|int(b[2]), 4
	case 0xc9:
		if len(b) < 6 {
			return 0, nil, nil, fmt.Errorf("wire: truncated ext32 header")
		}
		n, hdr = int(b[1])<<24|int(b[2])<<16|int(b[3])<<8|int(b[4]), 6
	default:
		return 0, nil, nil, fmt.Errorf("wire: not an extension value (lead byte 0x%02x)", b[0])
	}

	if len(b) < hdr {
		return 0, nil, nil, fmt.Errorf("wire: truncated extension header")
	}
	code = int8(b[hdr-1])
	if len(b) < hdr+n {
		return 0, nil, nil, fmt.Errorf("wire: truncated extension body")
	}
	data = b[hdr : hdr+n]
	return code, data, b[hdr+n:], nil
}

// decodeExt interprets an extension's (code, data) as one of the known
// value types, falling back to RawExt for codes this package does not
// natively understand or whose body has an unexpected length.
func decodeExt(code int8, data []byte) any {
	switch code {
	case extCodeDate:
		if len(data) != 4 {
			return RawExt{Code: code, Data: data}
		}
		v := int32(data[0])<<24 | int32(data[1])<<16 | int32(data[2])<<8 | int32(data[3])
		return dateFromYYYYMMDD(v)
	case extCodeDateTime:
		if len(data) != 6 {
			return RawExt{Code: code, Data: data}
		}
		return decodeDateTime(data)
	case extCodeDataFrame:
		header, body := splitHashHeader(data)
		return DataFrame{Header: header, CSV: body}
	case extCodeNDArray:
		header, body := splitHashHeader(data)
		return NDArray{Header: header, Raw: body}
	default:
		return RawExt{Code: code, Data: data}
	}
}

// encodeDate packs d as a signed 4-byte big-endian YYYYMMDD integer.
func encodeDate(d Date) []byte {
	v := d.yyyymmdd()
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// encodeDateTime packs t as a signed 6-byte (48-bit) big-endian
// YYYYMMDDhhmmss integer, matching the datetime ext type's wire format.
func encodeDateTime(t time.Time) []byte {
	t = t.UTC()
	y, m, d := t.Date()
	v := int64(y)*10000000000 + int64(m)*100000000 + int64(d)*1000000 +
		int64(t.Hour())*10000 + int64(t.Minute())*100 + int64(t.Second())
	return putInt48BE(v)
}

// decodeDateTime unpacks a signed 6-byte big-endian YYYYMMDDhhmmss integer.
func decodeDateTime(data []byte) time.Time {
	v := int48BE(data)
	second := int(v % 100)
	v /= 100
	minute := int(v % 100)
	v /= 100
	hour := int(v % 100)
	v /= 100
	day := int(v % 100)
	v /= 100
	month := int(v % 100)
	year := int(v / 100)
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

func putInt48BE(v int64) []byte {
	return []byte{
		byte(v >> 40), byte(v >> 32), byte(v >> 24),
		byte(v >> 16), byte(v >> 8), byte(v),
	}
}

// int48BE sign-extends a 6-byte big-endian two's-complement integer.
func int48BE(data []byte) int64 {
	v := int64(data[0])<<40 | int64(data[1])<<32 | int64(data[2])<<24 |
		int64(data[3])<<16 | int64(data[4])<<8 | int64(data[5])
	if v&(1<<47) != 0 {
		v -= 1 << 48
	}
	return v
}

// splitHashHeader separates the leading run of '#'-prefixed, '\n'-terminated
// header lines from the body bytes that follow, per the dataframe/ndarray
// ext-type wire format.
func splitHashHeader(data []byte) (header string, body []byte) {
	i := 0
	for i < len(data) && data[i] == '#' {
		nl := bytes.IndexByte(data[i:], '\n')
		if nl < 0 {
			i = len(data)
			break
		}
		i += nl + 1
	}
	return string(data[:i]), data[i:]
}
