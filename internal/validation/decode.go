package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// DecodeJSON reads the request body into dst. An empty body decodes as an
// empty object so that the struct rules report missing fields.
func DecodeJSON(r *http.Request, dst any) Errors {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		key := typeErr.Field
		return Errors{{Key: key, Error: typeMessage(key, typeErr.Type)}}
	}
	return Errors{{Key: "body", Error: "The request body must be valid JSON."}}
}

func typeMessage(key string, t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer(key)
	case reflect.Float32, reflect.Float64:
		return Numeric(key)
	case reflect.Bool:
		return Boolean(key)
	case reflect.Slice, reflect.Array:
		return Array(key)
	case reflect.String:
		return String(key)
	default:
		return "The " + Label(key) + " is invalid."
	}
}

// DecodeQuery copies query parameters into the exported fields of the
// struct pointed to by dst, matching on the json tag. Integer fields that
// do not parse are reported and left zero. Embedded structs are filled
// recursively.
func DecodeQuery(values url.Values, dst any) Errors {
	var errs Errors
	decodeStruct(values, reflect.ValueOf(dst).Elem(), &errs)
	return errs
}

func decodeStruct(values url.Values, v reflect.Value, errs *Errors) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			decodeStruct(values, fv, errs)
			continue
		}
		key := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if key == "" || key == "-" || !values.Has(key) {
			continue
		}
		raw := strings.TrimSpace(values.Get(key))

		target := fv
		if fv.Kind() == reflect.Pointer {
			target = reflect.New(fv.Type().Elem()).Elem()
		}

		switch target.Kind() {
		case reflect.Int, reflect.Int64, reflect.Int32:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs.Add(key, Integer(key))
				continue
			}
			target.SetInt(n)
		case reflect.String:
			target.SetString(raw)
		default:
			continue
		}

		if fv.Kind() == reflect.Pointer {
			ptr := reflect.New(fv.Type().Elem())
			ptr.Elem().Set(target)
			fv.Set(ptr)
		}
	}
}
