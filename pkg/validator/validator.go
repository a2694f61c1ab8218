package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// TagDecimalNonNegative rejects negative decimal amounts.
	TagDecimalNonNegative = "decimal_nonneg"
	// TagDecimalMoney rejects amounts a NUMERIC(14,4) column cannot hold
	// without rounding.
	TagDecimalMoney = "decimal_money"
)

const (
	MoneyScale = 4
	// MoneyLimit is the exclusive bound on a money amount's magnitude.
	MoneyLimit = 10_000_000_000
)

var moneyLimit = decimal.NewFromInt(MoneyLimit)

// ErrUnsupportedEngine is returned when gin runs a non validator/v10 engine.
var ErrUnsupportedEngine = errors.New("binding engine is not validator/v10")

// Register installs the custom types, tags and json field naming on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation(TagDecimalNonNegative, decimalNonNegative); err != nil {
		return err
	}
	return v.RegisterValidation(TagDecimalMoney, decimalMoney)
}

// RegisterBinding installs the validations on gin's default binding engine.
func RegisterBinding() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return ErrUnsupportedEngine
	}
	return Register(v)
}

// Messages flattens validation errors into one client readable line.
// It returns "" when err carries no field errors.
func Messages(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ""
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	return strings.Join(msgs, "; ")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case TagDecimalNonNegative:
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case TagDecimalMoney:
		return fmt.Sprintf("%s must have at most %d decimal places and be below %d", fe.Field(), MoneyScale, MoneyLimit)
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// decimalValue lets validator see decimals as their string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func decimalNonNegative(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

func decimalMoney(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return ValidMoney(d)
}

// ValidMoney reports whether d fits a money column exactly.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}
