package storyboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/eringen/storyboard/internal/domain"
)

func TestShapeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		dev  bool
		want ErrorBody
	}{
		{"action error", domain.NewForbiddenError(), false, ErrorBody{Code: http.StatusForbidden, Message: "You are not allowed to perform this action"}},
		{"wrapped action error", fmt.Errorf("ctx: %w", domain.NewRateLimitedError()), false, ErrorBody{Code: http.StatusTooManyRequests, Message: "Too many requests"}},
		{"not found", fmt.Errorf("get slug 3: %w", domain.ErrNotFound), false, ErrorBody{Code: http.StatusNotFound, Message: "Not found"}},
		{"constraint", fmt.Errorf("save: %w", domain.ErrConstraintViolation), false, ErrorBody{Code: http.StatusConflict, Message: "Conflicts with existing data"}},
		{"unknown masked", errors.New("pq: connection refused"), false, ErrorBody{Code: http.StatusInternalServerError, Message: genericMessage}},
		{"unknown in development", errors.New("pq: connection refused"), true, ErrorBody{Code: http.StatusInternalServerError, Message: "DEV ONLY ENABLED - pq: connection refused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShapeError(tt.err, tt.dev)
			if got.Code != tt.want.Code || got.Message != tt.want.Message {
				t.Errorf("ShapeError = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestShapeErrorValidationFields(t *testing.T) {
	ve := &domain.ValidationError{Entity: "slug"}
	ve.Add("title", "too long")
	got := ShapeError(ve, false)
	if got.Code != http.StatusBadRequest || got.Fields["title"] != "too long" {
		t.Fatalf("ShapeError = %+v", got)
	}
	if got.Message != "slug validation failed: title: too long" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestCallBind(t *testing.T) {
	var in struct {
		ID int64 `json:"id"`
	}
	if err := (&Call{}).Bind(&in); err != nil || in.ID != 0 {
		t.Fatalf("empty input: %v, %+v", err, in)
	}
	if err := (&Call{Input: []byte(`{"id":7,"extra":true}`)}).Bind(&in); err != nil || in.ID != 7 {
		t.Fatalf("unknown keys should be ignored: %v, %+v", err, in)
	}
	err := (&Call{Input: []byte(`{"id":"seven"}`)}).Bind(&in)
	var ae *domain.ActionError
	if !errors.As(err, &ae) || ae.Code != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
}

func TestRunActionGuardOrder(t *testing.T) {
	f := newFixture(t)
	ran := 0
	act := Action{Name: "guarded", Admin: true, RateLimit: true, Run: func(context.Context, *Call) (any, error) {
		ran++
		return "ok", nil
	}}
	f.app.RegisterAction(act)
	act = f.app.actions["guarded"]
	if !act.Auth {
		t.Fatal("Admin should imply Auth")
	}

	// Signed-out callers hit the auth check and still use up the rate limit.
	for i := 0; i < 5; i++ {
		if _, err := f.app.runAction(context.Background(), act, &Call{IP: "198.51.100.1"}); !domain.IsAuthenticationError(err) {
			t.Fatalf("call %d: err = %v", i+1, err)
		}
	}
	_, err := f.app.runAction(context.Background(), act, &Call{IP: "198.51.100.1"})
	var ae *domain.ActionError
	if !errors.As(err, &ae) || ae.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth call err = %v", err)
	}
	if ran != 0 {
		t.Errorf("action ran %d times", ran)
	}
}
