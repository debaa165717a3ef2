package handlers

import (
	"errors"
	"reflect"
	"sync"

	"github.com/SscSPs/p2p_loan_tracker/internal/utils/accounting"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	registerValidatorsOnce sync.Once
	registerValidatorsErr  error
)

// registerValidators teaches gin's validator the decimal rules used in the dto package:
//
//	decimal_gt0   positive amount
//	decimal_gte0  non-negative amount
//	decimal_rate  annual rate as a fraction in [0, 1]
func registerValidators() error {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerValidatorsErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}

		// Decimals are validated through their string form.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		rules := map[string]func(decimal.Decimal) bool{
			"decimal_gt0": func(d decimal.Decimal) bool {
				return accounting.ValidateAmount("amount", d) == nil
			},
			"decimal_gte0": func(d decimal.Decimal) bool {
				return !d.IsNegative()
			},
			"decimal_rate": func(d decimal.Decimal) bool {
				return accounting.ValidateAnnualRate(d) == nil
			},
		}
		for tag, rule := range rules {
			err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				d, err := decimal.NewFromString(fl.Field().String())
				if err != nil {
					return false
				}
				return rule(d)
			})
			if err != nil {
				registerValidatorsErr = err
				return
			}
		}
	})
	return registerValidatorsErr
}
