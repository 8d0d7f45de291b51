package tests

import (
	"context"
	"net/http"
	"testing"

	echoapi "github.com/ubunifu/launchpad/apps/api/echo"
	"github.com/ubunifu/launchpad/core/user"
)

func Test_userApi_login(t *testing.T) {
	usr := createAdmin(t, "login@test.cd")

	inactive := false
	deactivated := user.User{FirstName: "Gone", LastName: "User", Email: "gone@test.cd", Role: user.RoleAdmin, IsActive: &inactive}
	_ = deactivated.SetPassword("G00d-pa$$")
	if _, err := usrRepo.CreateUser(context.Background(), deactivated); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "this field is required", "password": "this field is required"}`),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "ghost@test.cd", "password": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "authentication failed"}`),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "login@test.cd", "password": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "authentication failed"}`),
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"email": "gone@test.cd", "password": "G00d-pa$$"}`),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error": "account deactivated"}`),
		},
		{
			name:     "ok",
			body:     []byte(`{"email": "Login@Test.cd", "password": "G00d-pa$$"}`), // email is case-insensitive
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var res echoapi.LoginResponse
			decodeBody(t, rec, &res)
			if res.Token == "" {
				t.Fatal("empty token")
			}

			// the token authenticates follow-up requests
			req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", res.Token)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("GET /me code = %d; body %s", rec.Code, rec.Body.String())
			}
			var me user.User
			decodeBody(t, rec, &me)
			if me.ID != usr.ID {
				t.Errorf("me.ID = %q, want %q", me.ID, usr.ID)
			}
		})
	}
}

func Test_userApi_me_requiresAuth(t *testing.T) {
	tt := httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marchallObj(t, errMissingToken),
	}
	req, rec := newRequest(http.MethodGet, "/v1/users/me")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func Test_userApi_refreshToken(t *testing.T) {
	usr := createAdmin(t, "refresh@test.cd")
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body %s", rec.Code, rec.Body.String())
	}
	var res echoapi.LoginResponse
	decodeBody(t, rec, &res)
	if res.Token == "" {
		t.Fatal("empty token")
	}
}

func Test_userApi_adminEndpoints(t *testing.T) {
	admin := createAdmin(t, "staff@test.cd")
	adminToken := getToken(t, admin)
	founder := founderToken(t, "22222222-2222-2222-2222-222222222222")

	tests := []httpTest{
		{name: "list users: anon", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "list users: non-admin", method: http.MethodGet, path: "/v1/users", token: founder, wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
		{name: "list users: admin", method: http.MethodGet, path: "/v1/users", token: adminToken, wantCode: http.StatusOK},
		{name: "roles: non-admin", method: http.MethodGet, path: "/v1/users/roles", token: founder, wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
		{name: "roles: admin", method: http.MethodGet, path: "/v1/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}
