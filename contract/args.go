package contract

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// FormatArg renders one move-call argument in the transaction builder's
// syntax. Integers are decimal, booleans bare, 0x-prefixed strings are
// addresses and every other string is quoted.
func FormatArg(index int, v any) (string, error) {
	switch a := v.(type) {
	case nil:
		return "", &ArgumentError{Kind: ErrInvalidArgument, Index: index, Msg: "argument is nil"}
	case *big.Int:
		if a == nil {
			return "", &ArgumentError{Kind: ErrInvalidArgument, Index: index, Msg: "argument is nil"}
		}
		return a.String(), nil
	case string:
		return formatString(a), nil
	case bool:
		return strconv.FormatBool(a), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return formatString(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}
	return "", &ArgumentError{Kind: ErrUnsupportedArgumentType, Index: index, Type: fmt.Sprintf("%T", v)}
}

func formatString(s string) string {
	if strings.HasPrefix(s, "0x") {
		return "@" + s
	}
	return `"` + s + `"`
}

// FormatArgs renders args in order and stops at the first bad one.
func FormatArgs(args []any) ([]string, error) {
	out := make([]string, 0, len(args))
	for i, a := range args {
		s, err := FormatArg(i, a)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
