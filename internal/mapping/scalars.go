package mapping

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	enumType            = reflect.TypeFor[Enum]()
	durationType        = reflect.TypeFor[time.Duration]()
)

// Scalars converts scalar node values into strings, booleans, numbers,
// durations, enums and encoding.TextUnmarshaler implementations.
type Scalars struct{}

func (Scalars) Name() string { return "scalars" }

func (Scalars) Priority(_ *parsednode.Node, t reflect.Type) int {
	if isScalarType(t) {
		return 10
	}
	return 0
}

func isScalarType(t reflect.Type) bool {
	if t.Implements(enumType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (Scalars) ToObject(_ *Context, n *parsednode.Node, t reflect.Type, _ any, path string) (reflect.Value, error) {
	if n.Value == nil {
		if len(n.Children) > 0 {
			return reflect.Value{}, parsednode.Errorf(n, "expected a single value for %s at %s", t, displayPath(path))
		}
		return reflect.Zero(t), nil
	}

	out := reflect.New(t).Elem()
	if err := setScalar(out, n.Value); err != nil {
		reason := err
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			reason = numErr.Err
		}
		return reflect.Value{}, parsednode.NewParseError(
			fmt.Sprintf("cannot convert %s to %s: %v", quoteValue(n.Value), t, reason), err, n)
	}
	return out, nil
}

func quoteValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

func setScalar(out reflect.Value, v any) error {
	t := out.Type()

	if t.Implements(enumType) {
		return setEnum(out, v)
	}
	if pt := reflect.PointerTo(t); pt.Implements(textUnmarshalerType) {
		return out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(fmt.Sprint(v)))
	}
	if t == durationType {
		return setDuration(out, v)
	}

	switch t.Kind() {
	case reflect.String:
		out.SetString(fmt.Sprint(v))
	case reflect.Bool:
		b, err := toBool(v)
		if err != nil {
			return err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt(v)
		if err != nil {
			return err
		}
		if out.OverflowInt(i) {
			return fmt.Errorf("%d overflows %s", i, t)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := toUint(v)
		if err != nil {
			return err
		}
		if out.OverflowUint(u) {
			return fmt.Errorf("%d overflows %s", u, t)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if out.OverflowFloat(f) {
			return fmt.Errorf("%g overflows %s", f, t)
		}
		out.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", t.Kind())
	}
	return nil
}

func setEnum(out reflect.Value, v any) error {
	if out.Kind() != reflect.String {
		return fmt.Errorf("enum %s must have a string kind", out.Type())
	}
	s := fmt.Sprint(v)
	allowed := out.Interface().(Enum).EnumValues()
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			out.SetString(a)
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
}

// setDuration accepts Go duration strings; bare integers are seconds.
func setDuration(out reflect.Value, v any) error {
	if s, ok := v.(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			out.SetInt(int64(d))
			return nil
		}
	}
	secs, err := toInt(v)
	if err != nil {
		return fmt.Errorf("not a duration")
	}
	out.SetInt(int64(time.Duration(secs) * time.Second))
	return nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("not a boolean")
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer")
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 0, 64)
	}
	return 0, fmt.Errorf("not an integer")
}

func toUint(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(x), 0, 64)
	}
	i, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("negative value")
	}
	return uint64(i), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	i, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return float64(i), nil
}
