package wire

import "time"

// Date is the Go side of ext type 5: a date with no time-of-day component,
// wired as a signed 4-byte big-endian YYYYMMDD integer.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	t = t.UTC()
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

func (d Date) yyyymmdd() int32 {
	return int32(d.Year*10000 + d.Month*100 + d.Day)
}

func dateFromYYYYMMDD(v int32) Date {
	return Date{Year: int(v / 10000), Month: int((v / 100) % 100), Day: int(v % 100)}
}

// DataFrame is the Go side of ext type 1: a text header describing dtype
// and index, followed by CSV body bytes. Reconstructing an actual tabular
// value from this is the caller's concern; the wire layer only enforces the
// header+body envelope.
type DataFrame struct {
	Header string
	CSV    []byte
}

// NDArray is the Go side of ext type 3: a text header describing shape and
// dtype, followed by the raw array bytes.
type NDArray struct {
	Header string
	Raw    []byte
}

// RawExt is the passthrough form for any extension code this package does
// not natively understand: the caller receives the code and the undecoded
// body for inspection.
type RawExt struct {
	Code int8
	Data []byte
}

const (
	extCodeDataFrame int8 = 1
	extCodeNDArray   int8 = 3
	extCodeDate      int8 = 5
	extCodeDateTime  int8 = 6
)
