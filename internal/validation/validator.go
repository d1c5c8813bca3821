package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MoneyPlaces is the most decimal places an amount may carry.
const MoneyPlaces = 2

// Accepted layouts for bill dates, Y-m-d first.
var billDateLayouts = []string{models.DateLayout, "02-01-2006"}

// Validator wraps validator.Validate with JSON key names, decimal support
// and the custom date rules.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(v, "billdate", func(fl validator.FieldLevel) bool {
		_, ok := ParseBillDate(fl.Field().String())
		return ok
	})
	mustRegister(v, "money", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.Equal(d.Truncate(MoneyPlaces))
	})

	return &Validator{v: v}
}

// decimalField reads the field under validation as a decimal. The custom
// type func hands rules a float64, so the exact value is read from the
// parent struct instead.
func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	f := reflect.Indirect(fl.Parent()).FieldByName(fl.StructFieldName())
	for f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return decimal.Zero, true
		}
		f = f.Elem()
	}
	if !f.IsValid() || !f.CanInterface() {
		return decimal.Zero, false
	}
	d, ok := f.Interface().(decimal.Decimal)
	return d, ok
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ParseBillDate accepts Y-m-d or d-m-Y and returns the date in
// models.DateLayout.
func ParseBillDate(s string) (string, bool) {
	for _, layout := range billDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.DateLayout), true
		}
	}
	return "", false
}

// Struct validates s and translates every failure into a field message.
func (v *Validator) Struct(s any) Errors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Key: "request", Error: "The request is invalid."}}
	}

	var out Errors
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		out.Add(key, message(key, fe))
	}
	return out
}

// fieldKey turns a validator namespace ("Req.friends[0].user_id") into an
// input key ("friends.0.user_id"). Segments naming Go types, such as the
// root struct and embedded structs, are dropped.
func fieldKey(ns string) string {
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	parts := strings.Split(ns, ".")[1:]
	keep := parts[:0]
	for _, p := range parts {
		if p == "" || (p[0] >= 'A' && p[0] <= 'Z') {
			continue
		}
		keep = append(keep, p)
	}
	return strings.Join(keep, ".")
}

func message(key string, fe validator.FieldError) string {
	f := Label(key)
	p := fe.Param()
	kind := fe.Kind()

	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return Required(key)
	case "min", "gte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s must be at least %s characters.", f, p)
		case reflect.Slice, reflect.Array, reflect.Map:
			if p == "1" {
				return Required(key)
			}
			return fmt.Sprintf("The %s must have at least %s items.", f, p)
		default:
			return fmt.Sprintf("The %s must be at least %s.", f, p)
		}
	case "max", "lte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s may not be greater than %s characters.", f, p)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s may not have more than %s items.", f, p)
		default:
			return fmt.Sprintf("The %s may not be greater than %s.", f, p)
		}
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", f, p)
	case "len":
		if kind == reflect.String {
			return fmt.Sprintf("The %s must be %s characters.", f, p)
		}
		return fmt.Sprintf("The %s must contain %s items.", f, p)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", f)
	case "oneof":
		return Invalid(key)
	case "eqfield":
		return Same(key, snake(p))
	case "numeric", "number":
		return Numeric(key)
	case "date", "billdate":
		return Date(key)
	case "money":
		return fmt.Sprintf("The %s may not have more than %d decimal places.", f, MoneyPlaces)
	case "url", "http_url":
		return fmt.Sprintf("The %s format is invalid.", f)
	default:
		return fmt.Sprintf("The %s is invalid.", f)
	}
}
