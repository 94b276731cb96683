package postprocess

import "reflect"

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// Walk calls fn for obj and every value reachable from it, parents before
// children. Struct values are passed by pointer when addressable, and each
// pointer is visited once.
func Walk(obj any, fn func(any) error) error {
	return walk(reflect.ValueOf(obj), map[visitKey]bool{}, fn)
}

func walk(v reflect.Value, seen map[visitKey]bool, fn func(any) error) error {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if seen[key] {
			return nil
		}
		seen[key] = true
		if v.CanInterface() {
			if err := fn(v.Interface()); err != nil {
				return err
			}
		}
		return walkContents(v.Elem(), seen, fn)
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walk(v.Elem(), seen, fn)
	case reflect.Struct:
		if v.CanAddr() {
			return walk(v.Addr(), seen, fn)
		}
		if v.CanInterface() {
			if err := fn(v.Interface()); err != nil {
				return err
			}
		}
		return walkContents(v, seen, fn)
	default:
		return walkContents(v, seen, fn)
	}
}

func walkContents(v reflect.Value, seen map[visitKey]bool, fn func(any) error) error {
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := walk(v.Field(i), seen, fn); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), seen, fn); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := walk(iter.Value(), seen, fn); err != nil {
				return err
			}
		}
	case reflect.Pointer, reflect.Interface:
		return walk(v, seen, fn)
	}
	return nil
}
