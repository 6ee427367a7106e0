package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type fakeAuth struct {
	service.AuthService
	validateErr error
	loginEmail  string
}

func (f *fakeAuth) Login(email, password string) (*service.LoginResponse, error) {
	f.loginEmail = email
	if password != "rahasia" {
		return nil, service.ErrInvalidCredentials
	}
	return &service.LoginResponse{Token: "t"}, nil
}

func (f *fakeAuth) ValidateToken(string) (*service.TokenValidationResponse, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return &service.TokenValidationResponse{}, nil
}

func TestAuthHandler(t *testing.T) {
	cases := []struct {
		name      string
		path      string
		body      string
		validate  error
		status    int
		reason    string
		wantEmail string
	}{
		{"login ok, email normalised", "/login", `{"email":" Kasir@Toko.ID ","password":"rahasia"}`, nil, 200, "", "kasir@toko.id"},
		{"login bad password", "/login", `{"email":"kasir@toko.id","password":"salah"}`, nil, 401, "", "kasir@toko.id"},
		{"login missing password", "/login", `{"email":"kasir@toko.id"}`, nil, 400, "", ""},
		{"login not an email", "/login", `{"email":"kasir","password":"rahasia"}`, nil, 400, "", ""},
		{"validate idle", "/validate-token", `{"token":"x"}`, service.ErrSessionTimeout, 401, "idle_timeout", ""},
		{"validate replaced", "/validate-token", `{"token":"x"}`, service.ErrSessionReplaced, 401, "replaced", ""},
		{"validate inactive", "/validate-token", `{"token":"x"}`, service.ErrUserInactive, 403, "", ""},
		{"validate empty", "/validate-token", `{}`, nil, 400, "", ""},
	}

	for _, tc := range cases {
		svc := &fakeAuth{validateErr: tc.validate}
		h := NewAuthHandler(svc)
		app := fiber.New()
		app.Post("/login", h.Login)
		app.Post("/validate-token", h.ValidateToken)

		req := httptest.NewRequest("POST", tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.status)
		}
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if tc.reason != "" && body["reason"] != tc.reason {
			t.Fatalf("%s: reason = %v, want %s", tc.name, body["reason"], tc.reason)
		}
		if svc.loginEmail != tc.wantEmail {
			t.Fatalf("%s: login email = %q, want %q", tc.name, svc.loginEmail, tc.wantEmail)
		}
	}
}
