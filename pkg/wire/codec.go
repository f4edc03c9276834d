package wire

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tinylib/msgp/msgp"
)

// compressionThreshold is the raw-payload size, in bytes, above which the
// sender Brotli-compresses the body and sets the header's compress flag.
const compressionThreshold = 1024

// PackMessage serializes seq/eventType/payload into a complete frame (header
// + body). If payload implements error, its Kind travels as a two-element
// [code, message] payload instead of the bare message string: the header's
// errno field is only three bits wide and cannot hold the full §7 code
// range (100..510) without colliding with neighboring fields, so the code
// rides in the payload and errno is reduced to a non-zero "this is an
// error" signal the client uses to decide whether to unwrap that shape.
func PackMessage(seq uint16, eventType EventType, payload any) ([]byte, error) {
	var errno uint8
	var body []byte
	var err error

	if wireErr, ok := payload.(error); ok {
		code := errorCode(wireErr)
		errno = uint8(code & 0x7)
		if errno == 0 {
			errno = 1
		}
		body, err = marshalValue(nil, []any{int64(code), wireErr.Error()})
	} else {
		body, err = marshalValue(nil, payload)
	}
	if err != nil {
		return nil, NewError(KindPackUnpackError, "wire: pack failure: %v", err)
	}

	compress := len(body) > compressionThreshold
	if compress {
		compressed, cerr := brotliCompress(body)
		if cerr != nil {
			return nil, NewError(KindPackUnpackError, "wire: compression failure: %v", cerr)
		}
		body = compressed
	}

	hdr := EncodeHeader(Header{
		PayloadLen:   uint32(len(body)),
		Seq:          seq,
		EventType:    eventType,
		CompressFlag: compress,
		Errno:        errno,
	})

	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, hdr[:]...)
	out = append(out, body...)
	return out, nil
}

// errorCode extracts the numeric §7 code for err, defaulting to 500
// (RemoteInternalError) for errors this package did not originate itself.
func errorCode(err error) int {
	if wireErr, ok := err.(*Error); ok {
		return int(wireErr.Kind)
	}
	return int(KindRemoteInternalError)
}

// UnpackPayload decompresses (if flagged) and MessagePack-decodes body into
// a Go value using the universe documented in the payload ext-type table.
// It does not interpret errno; the caller (which has the decoded Header)
// is responsible for recognizing an error frame and unwrapping its
// [code, message] shape via UnpackError.
func UnpackPayload(compressFlag bool, body []byte) (any, error) {
	if compressFlag {
		decompressed, err := brotliDecompress(body)
		if err != nil {
			return nil, NewError(KindPackUnpackError, "wire: decompression failure: %v", err)
		}
		body = decompressed
	}

	if len(body) == 0 {
		return nil, nil
	}

	v, rest, err := unmarshalValue(body)
	if err != nil {
		return nil, NewError(KindPackUnpackError, "wire: unpack failure: %v", err)
	}
	if len(rest) != 0 {
		return nil, NewError(KindPackUnpackError, "wire: trailing bytes after payload")
	}
	return v, nil
}

// UnpackError reinterprets a decoded error-frame payload (the
// [code, message] array PackMessage produces for an error value) as a
// *Error. It is the caller's job to know, from the header's non-zero
// errno, that this interpretation applies.
func UnpackError(payload any) (*Error, error) {
	arr, ok := payload.([]any)
	if !ok || len(arr) != 2 {
		return nil, fmt.Errorf("wire: malformed error payload %T", payload)
	}
	code, ok := toInt64(arr[0])
	if !ok {
		return nil, fmt.Errorf("wire: malformed error code %T", arr[0])
	}
	message, ok := arr[1].(string)
	if !ok {
		return nil, fmt.Errorf("wire: malformed error message %T", arr[1])
	}
	return NewErrorFromCode(int(code), message), nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func brotliCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}

// marshalValue appends the MessagePack encoding of v to b. The supported
// universe is nil, bool, string, []byte, the signed/unsigned/float numeric
// kinds, []any, map[string]any, and the ext-type wrappers (Date, time.Time,
// DataFrame, NDArray, RawExt).
func marshalValue(b []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return msgp.AppendNil(b), nil
	case bool:
		return msgp.AppendBool(b, t), nil
	case string:
		return msgp.AppendString(b, t), nil
	case []byte:
		return msgp.AppendBytes(b, t), nil
	case int:
		return msgp.AppendInt64(b, int64(t)), nil
	case int8:
		return msgp.AppendInt64(b, int64(t)), nil
	case int16:
		return msgp.AppendInt64(b, int64(t)), nil
	case int32:
		return msgp.AppendInt64(b, int64(t)), nil
	case int64:
		return msgp.AppendInt64(b, t), nil
	case uint:
		return msgp.AppendUint64(b, uint64(t)), nil
	case uint8:
		return msgp.AppendUint64(b, uint64(t)), nil
	case uint16:
		return msgp.AppendUint64(b, uint64(t)), nil
	case uint32:
		return msgp.AppendUint64(b, uint64(t)), nil
	case uint64:
		return msgp.AppendUint64(b, t), nil
	case float32:
		return msgp.AppendFloat32(b, t), nil
	case float64:
		return msgp.AppendFloat64(b, t), nil
	case []any:
		b = msgp.AppendArrayHeader(b, uint32(len(t)))
		var err error
		for _, el := range t {
			if b, err = marshalValue(b, el); err != nil {
				return nil, err
			}
		}
		return b, nil
	case map[string]any:
		b = msgp.AppendMapHeader(b, uint32(len(t)))
		var err error
		for k, val := range t {
			b = msgp.AppendString(b, k)
			if b, err = marshalValue(b, val); err != nil {
				return nil, err
			}
		}
		return b, nil
	case Date:
		return appendExt(b, extCodeDate, encodeDate(t)), nil
	case DataFrame:
		return appendExt(b, extCodeDataFrame, append([]byte(t.Header), t.CSV...)), nil
	case NDArray:
		return appendExt(b, extCodeNDArray, append([]byte(t.Header), t.Raw...)), nil
	case RawExt:
		return appendExt(b, t.Code, t.Data), nil
	case time.Time:
		return appendExt(b, extCodeDateTime, encodeDateTime(t)), nil
	default:
		return nil, fmt.Errorf("wire: unsupported value type %T", v)
	}
}

// unmarshalValue decodes a single MessagePack value from the front of b,
// returning the value and the remaining bytes.
func unmarshalValue(b []byte) (any, []byte, error) {
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("wire: unexpected end of payload")
	}

	switch msgp.NextType(b) {
	case msgp.NilType:
		o, err := msgp.ReadNilBytes(b)
		return nil, o, err
	case msgp.BoolType:
		v, o, err := msgp.ReadBoolBytes(b)
		return v, o, err
	case msgp.StrType:
		v, o, err := msgp.ReadStringBytes(b)
		return v, o, err
	case msgp.BinType:
		v, o, err := msgp.ReadBytesBytes(b, nil)
		return v, o, err
	case msgp.IntType:
		v, o, err := msgp.ReadInt64Bytes(b)
		return v, o, err
	case msgp.UintType:
		v, o, err := msgp.ReadUint64Bytes(b)
		return v, o, err
	case msgp.Float32Type:
		v, o, err := msgp.ReadFloat32Bytes(b)
		return v, o, err
	case msgp.Float64Type:
		v, o, err := msgp.ReadFloat64Bytes(b)
		return v, o, err
	case msgp.ArrayType:
		sz, o, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return nil, nil, err
		}
		arr := make([]any, sz)
		for i := range arr {
			var el any
			if el, o, err = unmarshalValue(o); err != nil {
				return nil, nil, err
			}
			arr[i] = el
		}
		return arr, o, nil
	case msgp.MapType:
		sz, o, err := msgp.ReadMapHeaderBytes(b)
		if err != nil {
			return nil, nil, err
		}
		m := make(map[string]any, sz)
		for i := uint32(0); i < sz; i++ {
			var key string
			if key, o, err = msgp.ReadStringBytes(o); err != nil {
				return nil, nil, err
			}
			var val any
			if val, o, err = unmarshalValue(o); err != nil {
				return nil, nil, err
			}
			m[key] = val
		}
		return m, o, nil
	case msgp.ExtensionType:
		code, data, o, err := readExt(b)
		if err != nil {
			return nil, nil, err
		}
		return decodeExt(code, data), o, nil
	default:
		return nil, nil, fmt.Errorf("wire: unsupported msgpack type in payload")
	}
}
