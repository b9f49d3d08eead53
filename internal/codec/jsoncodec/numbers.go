package jsoncodec

import (
	"bytes"
	"strconv"
)

// int64JSON and uint64JSON are written quoted and read either quoted or
// as plain numbers, as proto JSON allows for 64-bit integers.
type (
	int64JSON  int64
	uint64JSON uint64
)

func (n int64JSON) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatInt(int64(n), 10)), nil
}

func (n *int64JSON) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(unquoteNumber(b), 10, 64)
	if err != nil {
		return err
	}
	*n = int64JSON(v)
	return nil
}

func (n uint64JSON) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatUint(uint64(n), 10)), nil
}

func (n *uint64JSON) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseUint(unquoteNumber(b), 10, 64)
	if err != nil {
		return err
	}
	*n = uint64JSON(v)
	return nil
}

// unquoteNumber strips the quotes of a quoted number. A JSON string with
// escapes is left as is and fails to parse.
func unquoteNumber(b []byte) string {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' && !bytes.ContainsRune(b, '\\') {
		return string(b[1 : len(b)-1])
	}
	return string(b)
}
