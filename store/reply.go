package store

import (
	"fmt"
	"strconv"
)

// Bytes converts a normalized reply to []byte.
func Bytes(v any, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	switch vv := v.(type) {
	case []byte:
		return vv, nil
	case string:
		return []byte(vv), nil
	case nil:
		return nil, ErrNil
	default:
		return nil, fmt.Errorf("store: unexpected reply type %T for bytes", v)
	}
}

// Int64 converts a normalized reply to int64.
func Int64(v any, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	switch vv := v.(type) {
	case int64:
		return vv, nil
	case int:
		return int64(vv), nil
	case string:
		return strconv.ParseInt(vv, 10, 64)
	case []byte:
		return strconv.ParseInt(string(vv), 10, 64)
	case nil:
		return 0, ErrNil
	default:
		return 0, fmt.Errorf("store: unexpected reply type %T for integer", v)
	}
}
