package payflow

import (
	"strconv"
	"strings"

	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
)

// Field is one name-value pair on the wire. Keys are uppercase protocol tokens.
type Field struct {
	Key   string
	Value string
}

// Encode renders fields as KEY[len]=value joined by "&". The byte-length
// prefix lets values carry "&" and "=" on the way out.
func Encode(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Key)
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(len(f.Value)))
		b.WriteString("]=")
		b.WriteString(f.Value)
	}
	return b.String()
}

// Record is one decoded gateway response
type Record map[string]string

// Decode parses a gateway response. Parsing starts at the first "RESULT";
// anything before it is discarded. Each value ends at the next "&", so a
// value containing "&" comes back truncated and the remainder is read as
// a separate pair. Responses do not carry length prefixes, which is why
// decoding cannot mirror Encode.
//
// A segment without "=" is kept as a key with an empty value. A repeated
// key keeps its last value.
func Decode(body string) (Record, error) {
	start := strings.Index(body, "RESULT")
	if start < 0 {
		return nil, pkgerrors.ProtocolError(body)
	}

	record := make(Record)
	rest := body[start:]
	for rest != "" {
		segment := rest
		if amp := strings.IndexByte(rest, '&'); amp >= 0 {
			segment, rest = rest[:amp], rest[amp+1:]
		} else {
			rest = ""
		}
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		record[key] = value
	}
	return record, nil
}

// Result returns RESULT as an integer.
func (r Record) Result() (int, error) {
	raw, ok := r["RESULT"]
	if !ok {
		return 0, pkgerrors.ProtocolError("")
	}
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		e := pkgerrors.ProtocolError(raw)
		e.Message = "Non-numeric RESULT code from gateway"
		e.Err = err
		return 0, e
	}
	return code, nil
}

// Keys returns the field names present, for logging without values.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}
