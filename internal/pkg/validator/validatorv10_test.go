package validator

import (
	"errors"
	"testing"
)

func TestV10Validator_Validate(t *testing.T) {
	type pin struct {
		DialogID string `json:"dialog_id" validate:"required"`
		Value    string `json:"value" validate:"required,digits=4"`
	}

	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name      string
		input     pin
		wantField string
	}{
		{name: "valid", input: pin{DialogID: "d1", Value: "1234"}},
		{name: "missing dialog", input: pin{Value: "1234"}, wantField: "dialog_id"},
		{name: "too short", input: pin{DialogID: "d1", Value: "123"}, wantField: "value"},
		{name: "not numeric", input: pin{DialogID: "d1", Value: "12a4"}, wantField: "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.input)

			// Assert
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %T, want V10ValidationError", err)
			}
			if _, ok := verr.Values()[tt.wantField]; !ok {
				t.Fatalf("Validate() fields = %v, want %q", verr.Values(), tt.wantField)
			}
		})
	}
}

func TestV10Validator_ValidateVar(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name    string
		value   string
		tag     string
		wantErr bool
	}{
		{name: "six digits", value: "123456", tag: "digits=6"},
		{name: "six digits with four rule", value: "123456", tag: "digits=4", wantErr: true},
		{name: "unicode digits rejected", value: "١٢٣٤", tag: "digits=4", wantErr: true},
		{name: "empty", value: "", tag: "digits=4", wantErr: true},
		{name: "bad param", value: "1234", tag: "digits=x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.ValidateVar(tt.value, tt.tag)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVar() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestV10ValidationError_Error(t *testing.T) {
	if got := (V10ValidationError{}).Error(); got != "validation error" {
		t.Fatalf("Error() = %q", got)
	}
	if got := (V10ValidationError{"value": "bad"}).Error(); got != `{"value":"bad"}` {
		t.Fatalf("Error() = %q", got)
	}
}
