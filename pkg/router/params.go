package router

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"

	"github.com/vango-dev/vango-admin/pkg/routepath"
)

// Bind copies params into the fields of target tagged with `param:"name"`.
// target must be a pointer to a struct. Supported field kinds are string,
// signed and unsigned integers, floats, bool and uuid.UUID.
//
//	var p struct {
//	    ID int64 `param:"id"`
//	}
//	err := router.Bind(req.Params, &p)
func Bind(params routepath.Params, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("router: bind target must be a pointer to struct, got %T", target)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("param")
		if name == "" {
			continue
		}
		raw, ok := params.Lookup(name)
		if !ok {
			continue
		}
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("router: param %q: %w", name, err)
		}
	}
	return nil
}

var uuidType = reflect.TypeOf(uuid.UUID{})

func setField(field reflect.Value, raw string) error {
	if field.Type() == uuidType {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid uuid: %s", raw)
		}
		field.Set(reflect.ValueOf(id))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", raw)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", raw)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", raw)
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}
	return nil
}
