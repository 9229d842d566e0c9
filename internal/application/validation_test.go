package application

import (
	"errors"
	"testing"

	"bonsai/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
		wantMsg   string
	}{
		{
			name:      "valid value",
			fieldName: "url",
			value:     "https://example.com",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "url",
			value:     "",
			wantErr:   true,
			wantMsg:   "url: URL is required",
		},
		{
			name:      "whitespace only",
			fieldName: "viewportID",
			value:     "   ",
			wantErr:   true,
			wantMsg:   "viewportID: viewport ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
				if err.Error() != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, err.Error())
				}
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   domain.Event
		wantErr bool
		field   string
	}{
		{
			name:  "spawned",
			event: domain.Spawned("1", "2", "https://a"),
		},
		{
			name:    "spawned without sender",
			event:   domain.Spawned("", "2", "https://a"),
			wantErr: true,
			field:   "senderID",
		},
		{
			name:    "forward confirmed without url",
			event:   domain.ForwardConfirmed("1", ""),
			wantErr: true,
			field:   "url",
		},
		{
			name:  "request back without viewport uses active",
			event: domain.RequestBack("", "node"),
		},
		{
			name:    "forget without target",
			event:   domain.ForgetNode(""),
			wantErr: true,
			field:   "targetID",
		},
		{
			name:    "closed without viewport",
			event:   domain.ViewportClosed(""),
			wantErr: true,
			field:   "viewportID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvent(tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) || valErr.Field != tt.field {
					t.Errorf("expected ValidationError on %s, got %v", tt.field, err)
				}
			}
		})
	}
}
