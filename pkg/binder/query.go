package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Query fills string fields tagged `query:"name"` from the URL query.
// Only string fields are supported; other kinds are a programming error.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		if len(values) == 0 {
			return ErrBinderNotApplicable
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a non-nil pointer to struct", ErrFailedToParseQuery)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			field := rt.Field(i)
			name := field.Tag.Get("query")
			if name == "" || name == "-" || !field.IsExported() {
				continue
			}
			if field.Type.Kind() != reflect.String {
				return fmt.Errorf("%w: field %s: unsupported kind %s", ErrFailedToParseQuery, field.Name, field.Type.Kind())
			}
			if values.Has(name) {
				rv.Field(i).SetString(values.Get(name))
			}
		}
		return nil
	}
}
