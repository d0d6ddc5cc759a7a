package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotScalar = errors.New("api: expected a string or a number")

var jsonNull = []byte("null")

// digitString accepts either a JSON string or a JSON number and keeps the
// literal text. Phone numbers arrive both ways.
type digitString string

func (d *digitString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, jsonNull):
		*d = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = digitString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errNotScalar
	}
	*d = digitString(n.String())
	return nil
}

// optionalFloat is a number that may be absent. A numeric string is
// accepted; a string that does not parse becomes NaN so price validation
// rejects it with its own message.
type optionalFloat struct {
	value *float64
}

func (f *optionalFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		f.value = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			f.value = nil
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = math.NaN()
		}
		f.value = &v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return errNotScalar
	}
	f.value = &v
	return nil
}

func (f optionalFloat) Ptr() *float64 {
	return f.value
}
