package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/unihub/core/internal/domain/entities"
)

func TestDomainHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{entities.ErrAccountNotFound, http.StatusNotFound},
		{entities.ErrContactNotFound, http.StatusNotFound},
		{entities.ErrBoardNotFound, http.StatusNotFound},
		{entities.ErrAssessmentNotFound, http.StatusNotFound},
		{entities.ErrInvalidCredentials, http.StatusUnauthorized},
		{entities.ErrPasswordNotSet, http.StatusUnauthorized},
		{entities.ErrForbidden, http.StatusForbidden},
		{entities.ErrEmailTaken, http.StatusConflict},
		{entities.ErrDuplicateContact, http.StatusConflict},
		{entities.ErrInvitationResolved, http.StatusConflict},
		{entities.ErrNotGroupMember, http.StatusConflict},
		{entities.ErrBoardClosed, http.StatusConflict},
		{entities.ErrSelfContact, http.StatusBadRequest},
		{entities.ErrInvalidStatus, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var he *echo.HTTPError
			if !errors.As(domainHTTPError(tt.err), &he) {
				t.Fatal("mapped error should be an echo.HTTPError")
			}
			if he.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, he.Code)
			}
		})
	}

	// Wrapped sentinels map the same way.
	wrapped := fmt.Errorf("load board: %w", entities.ErrBoardNotFound)
	var he *echo.HTTPError
	if !errors.As(domainHTTPError(wrapped), &he) || he.Code != http.StatusNotFound {
		t.Fatal("wrapped sentinel should still map to 404")
	}

	// Unknown errors fall through untouched for the central handler.
	plain := errors.New("connection reset")
	if got := domainHTTPError(plain); got != plain {
		t.Fatalf("unmapped error should pass through, got %v", got)
	}
}

func TestPasswordErrorsIndistinguishableFromWrongPassword(t *testing.T) {
	invalid := domainHTTPError(entities.ErrInvalidCredentials).(*echo.HTTPError)
	noPassword := domainHTTPError(entities.ErrPasswordNotSet).(*echo.HTTPError)
	if invalid.Message != noPassword.Message {
		t.Fatal("credential failures must not leak which factor was wrong")
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tt.value)

			got, err := pathID(c, "id")
			if tt.wantErr {
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("pathID: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGetAccountIDFromContext(t *testing.T) {
	e := echo.New()
	id := uuid.New()

	tests := []struct {
		name  string
		value interface{}
		want  uuid.UUID
	}{
		{"valid id", id.String(), id},
		{"not set", nil, uuid.Nil},
		{"not a string", 42, uuid.Nil},
		{"not a uuid", "nope", uuid.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.value != nil {
				c.Set("account_id", tt.value)
			}
			if got := getAccountIDFromContext(c); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
