package transport

import (
	"testing"

	"promise_backend/platform/phone"
	"promise_backend/platform/validator"
)

func newValidator(t *testing.T) *validator.Validator {
	t.Helper()
	val := validator.New()
	if err := RegisterValidations(val, phone.NewNormalizer("BD")); err != nil {
		t.Fatalf("register: %v", err)
	}
	return val
}

func TestCreateRequestValidation(t *testing.T) {
	val := newValidator(t)

	ok := CreateServiceRequestRequest{Brand: "Sony", PrimaryIssue: "Power Issue", CustomerName: "Nadia", Phone: "01712345678"}
	if err := val.Struct(ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := ok
	bad.Phone = "12"
	bad.ServiceMode = "drone"
	errs := validator.FieldErrors(val.Struct(bad))
	if errs["phone"] != "phone_number" {
		t.Fatalf("phone: %v", errs)
	}
	if errs["serviceMode"] != "oneof=pickup service_center" {
		t.Fatalf("serviceMode: %v", errs)
	}
}

func TestTrackingStatusTag(t *testing.T) {
	val := newValidator(t)

	if err := val.Struct(UpdateTrackingStatusRequest{TrackingStatus: "Parts Pending"}); err != nil {
		t.Fatalf("known status rejected: %v", err)
	}
	if err := val.Struct(UpdateTrackingStatusRequest{TrackingStatus: "parts pending"}); err == nil {
		t.Fatal("status match must be exact")
	}
	if err := val.Struct(ListServiceRequestsQuery{}); err != nil {
		t.Fatalf("empty query rejected: %v", err)
	}
}

func TestQuoteRequestValidation(t *testing.T) {
	val := newValidator(t)

	if err := val.Struct(SetQuoteRequest{QuoteAmount: 2500}); err != nil {
		t.Fatalf("valid quote rejected: %v", err)
	}
	if errs := validator.FieldErrors(val.Struct(SetQuoteRequest{QuoteAmount: -1})); errs["quoteAmount"] != "gt=0" {
		t.Fatalf("negative amount: %v", errs)
	}

	if err := val.Struct(AcceptQuoteRequest{ServicePreference: "home_pickup", PickupTier: "Priority"}); err != nil {
		t.Fatalf("valid acceptance rejected: %v", err)
	}
	errs := validator.FieldErrors(val.Struct(AcceptQuoteRequest{ServicePreference: "courier", PickupTier: "Express"}))
	if errs["servicePreference"] != "oneof=home_pickup service_center" {
		t.Fatalf("servicePreference: %v", errs)
	}
	if errs["pickupTier"] != "oneof=Regular Priority Emergency" {
		t.Fatalf("pickupTier: %v", errs)
	}
}

func TestUpdateStatusRejectsConverted(t *testing.T) {
	val := newValidator(t)

	if err := val.Struct(UpdateStatusRequest{Status: "Reviewed"}); err != nil {
		t.Fatalf("Reviewed rejected: %v", err)
	}
	if err := val.Struct(UpdateStatusRequest{Status: "Converted"}); err == nil {
		t.Fatal("Converted must not be settable")
	}
}
