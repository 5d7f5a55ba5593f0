package transport

import (
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/platform/phone"
	"promise_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the service request tags to val:
// phone_number (parseable for the configured region) and tracking_status.
func RegisterValidations(val *validator.Validator, normalizer phone.Normalizer) error {
	if err := val.RegisterValidation("phone_number", func(fl govalidator.FieldLevel) bool {
		return normalizer.Valid(fl.Field().String())
	}); err != nil {
		return err
	}
	return val.RegisterValidation("tracking_status", func(fl govalidator.FieldLevel) bool {
		return domain.IsTrackingStatus(fl.Field().String())
	})
}
