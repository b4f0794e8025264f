package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"dineease/shared/failure"
	"dineease/shared/validator"
)

type createRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required,uuid"`
	PartySize    int    `json:"party_size"    validate:"required,gte=1,lte=20"`
	Notes        string `json:"notes"         validate:"omitempty,max=500"`
}

func TestValidate_ValidBody(t *testing.T) {
	body := `{"restaurant_id":"7f6c1fd2-6dbb-4a9c-bb9d-0a2b6e6d4a11","party_size":4}`

	req := createRequest{}
	if err := validator.Validate(strings.NewReader(body), &req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if req.PartySize != 4 {
		t.Errorf("expected party size 4, got %d", req.PartySize)
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	req := createRequest{}

	err := validator.Validate(strings.NewReader("{not json"), &req)
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}

	if failure.GetCode(err) != http.StatusBadRequest {
		t.Errorf("expected bad request, got %d", failure.GetCode(err))
	}
}

func TestValidateStruct_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		req       createRequest
		wantError bool
	}{
		{
			name: "party size below minimum",
			req: createRequest{
				RestaurantID: "7f6c1fd2-6dbb-4a9c-bb9d-0a2b6e6d4a11",
				PartySize:    0,
			},
			wantError: true,
		},
		{
			name: "party size above maximum",
			req: createRequest{
				RestaurantID: "7f6c1fd2-6dbb-4a9c-bb9d-0a2b6e6d4a11",
				PartySize:    21,
			},
			wantError: true,
		},
		{
			name: "missing restaurant id",
			req: createRequest{
				PartySize: 2,
			},
			wantError: true,
		},
		{
			name: "valid upper bound",
			req: createRequest{
				RestaurantID: "7f6c1fd2-6dbb-4a9c-bb9d-0a2b6e6d4a11",
				PartySize:    20,
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&tt.req)

			if tt.wantError && err == nil {
				t.Error("expected a validation error")
			}

			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	if err := validator.ValidateVar("not-a-uuid", "uuid"); err == nil {
		t.Error("expected uuid validation to fail")
	}

	if err := validator.ValidateVar("7f6c1fd2-6dbb-4a9c-bb9d-0a2b6e6d4a11", "uuid"); err != nil {
		t.Errorf("expected uuid validation to pass, got %v", err)
	}
}
