package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/model"
)

// NewValidator returns a validator that understands decimal.Decimal fields, so
// tags like `validate:"gt=0"` work on prices.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// describeValidation turns validator output into a single readable reason.
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// positivePrice rejects zero, negative and absent prices and prices finer than a cent.
func positivePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperrors.Validation("price must be a positive number")
	}
	if !price.Equal(price.Truncate(model.PriceScale)) {
		return apperrors.Validation("price must have at most %d decimal places", model.PriceScale)
	}
	return nil
}

// notFound maps a missing row onto NotFoundError and wraps anything else.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return fmt.Errorf("load %s: %w", strings.ToLower(resource), err)
}

// userWriteError maps model validation and uniqueness failures from a user write.
func userWriteError(err error) error {
	switch {
	case errors.Is(err, model.ErrShopNameRequired), errors.Is(err, model.ErrMarketRequired):
		return apperrors.Validation("%s", err.Error())
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrUserAlreadyExists
	default:
		return fmt.Errorf("save user: %w", err)
	}
}
