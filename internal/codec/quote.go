package codec

import (
	"math"
	"strconv"

	"github.com/blacknand/AlgoPulse/internal/model"
	"github.com/blacknand/AlgoPulse/pkg/exception"
	"github.com/blacknand/AlgoPulse/pkg/scanner"
)

const (
	QuoteFieldCount = 6
	fieldSep        = ','
)

// Field positions on the wire: symbol,bidPrice,askPrice,bidVolume,askVolume,timestampMicros
const (
	FieldSymbol = iota
	FieldBidPrice
	FieldAskPrice
	FieldBidVolume
	FieldAskVolume
	FieldTimestamp
)

var fieldNames = [QuoteFieldCount]string{
	"symbol",
	"bidPrice",
	"askPrice",
	"bidVolume",
	"askVolume",
	"timestampMicros",
}

// FieldName returns the wire name of the field at index, or "extra" past the last field.
func FieldName(index int) string {
	if index < 0 || index >= QuoteFieldCount {
		return "extra"
	}
	return fieldNames[index]
}

// DecodeError describes why a wire message could not become a quote.
// Kind is exception.ErrMissingField or exception.ErrMalformedField.
type DecodeError struct {
	Kind  error
	Index int
	Value string
	Err   error
}

func (e *DecodeError) Field() string {
	return FieldName(e.Index)
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error() + " " + e.Field() + " (index " + strconv.Itoa(e.Index) + ")"
	if e.Value != "" {
		msg += " value " + strconv.Quote(e.Value)
	}
	if e.Err != nil {
		msg += ", err: " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func missing(index int) error {
	return &DecodeError{Kind: exception.ErrMissingField, Index: index}
}

func malformed(index int, value []byte, err error) error {
	return &DecodeError{Kind: exception.ErrMalformedField, Index: index, Value: string(value), Err: err}
}

// DecodeQuote parses one wire message into a quote. A single trailing line ending is ignored.
// No partial quote is ever returned: on error the zero Quote comes back with a *DecodeError.
func DecodeQuote(raw []byte) (model.Quote, error) {
	raw = scanner.TrimLineEnding(raw)

	var (
		fields [QuoteFieldCount][]byte
		rest   = raw
		more   = true
	)
	for i := 0; i < QuoteFieldCount; i++ {
		if !more {
			return model.Quote{}, missing(i)
		}
		fields[i], rest, more = scanner.NextField(rest, fieldSep)
	}
	if more {
		return model.Quote{}, malformed(QuoteFieldCount, rest, nil)
	}

	if len(fields[FieldSymbol]) == 0 {
		return model.Quote{}, malformed(FieldSymbol, nil, nil)
	}

	bid, err := parsePrice(fields[FieldBidPrice])
	if err != nil {
		return model.Quote{}, malformed(FieldBidPrice, fields[FieldBidPrice], err)
	}
	ask, err := parsePrice(fields[FieldAskPrice])
	if err != nil {
		return model.Quote{}, malformed(FieldAskPrice, fields[FieldAskPrice], err)
	}
	bidVol, err := parseVolume(fields[FieldBidVolume])
	if err != nil {
		return model.Quote{}, malformed(FieldBidVolume, fields[FieldBidVolume], err)
	}
	askVol, err := parseVolume(fields[FieldAskVolume])
	if err != nil {
		return model.Quote{}, malformed(FieldAskVolume, fields[FieldAskVolume], err)
	}
	ts, err := strconv.ParseInt(string(fields[FieldTimestamp]), 10, 64)
	if err != nil {
		return model.Quote{}, malformed(FieldTimestamp, fields[FieldTimestamp], err)
	}

	return model.Quote{
		Symbol:         string(fields[FieldSymbol]),
		BidPrice:       bid,
		AskPrice:       ask,
		BidVolume:      bidVol,
		AskVolume:      askVol,
		TimestampMicro: ts,
	}, nil
}

// parsePrice accepts plain decimal text: an optional sign, digits with an
// optional fraction, and an optional exponent. Hex floats, underscores and
// the Inf/NaN spellings that strconv.ParseFloat allows are rejected.
func parsePrice(b []byte) (float64, error) {
	if !isDecimal(b) {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, exception.ErrInvalidArgument
	}
	return v, nil
}

func isDecimal(b []byte) bool {
	i := 0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(b) && isDigit(b[i]); i++ {
		digits++
	}
	if i < len(b) && b[i] == '.' {
		i++
		for ; i < len(b) && isDigit(b[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(b) && isDigit(b[i]); i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func parseVolume(b []byte) (int64, error) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, exception.ErrInvalidArgument
	}
	return v, nil
}

// EncodeQuote appends the wire form of q to dst.
// Prices use the shortest representation that parses back to the same float64.
func EncodeQuote(dst []byte, q model.Quote) []byte {
	dst = append(dst, q.Symbol...)
	dst = append(dst, fieldSep)
	dst = strconv.AppendFloat(dst, q.BidPrice, 'f', -1, 64)
	dst = append(dst, fieldSep)
	dst = strconv.AppendFloat(dst, q.AskPrice, 'f', -1, 64)
	dst = append(dst, fieldSep)
	dst = strconv.AppendInt(dst, q.BidVolume, 10)
	dst = append(dst, fieldSep)
	dst = strconv.AppendInt(dst, q.AskVolume, 10)
	dst = append(dst, fieldSep)
	dst = strconv.AppendInt(dst, q.TimestampMicro, 10)
	return dst
}
