package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/services"
)

func newAuthHandler(f *fixture) (*AuthHandler, *services.SessionService) {
	sessions := services.NewSessionService(f.client, time.Hour)
	accounts := services.NewAccountService(f.store, services.NewCodec(nil), f.log)
	return NewAuthHandler(accounts, sessions, f.log), sessions
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	return httptest.NewRequest(method, target, &buf)
}

func TestAuthHandler_SignupSigninSignout(t *testing.T) {
	f := newFixture(t)
	h, sessions := newAuthHandler(f)

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "New@Example.com", "password": "long enough",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "new@example.com", body["email"])
	token := body["token"].(string)

	email, err := sessions.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", email)

	rec = httptest.NewRecorder()
	h.Signin(rec, jsonRequest(http.MethodPost, "/api/auth/signin", map[string]string{
		"email": "new@example.com", "password": "long enough",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody(t, rec)["token"].(string)
	assert.NotEqual(t, token, second)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.Signout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = sessions.Validate(context.Background(), token)
	assert.Error(t, err)
	_, err = sessions.Validate(context.Background(), second)
	assert.NoError(t, err)
}

func TestAuthHandler_Errors(t *testing.T) {
	f := newFixture(t)
	h, _ := newAuthHandler(f)

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": "not-an-email", "password": "long enough"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A valid email address is required", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Signup(rec, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@example.com", "password": "short"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at least 8 characters", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Signup(rec, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@example.com", "password": "long enough"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Signup(rec, jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": "A@example.com", "password": "long enough"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Signin(rec, jsonRequest(http.MethodPost, "/api/auth/signin", map[string]string{"email": "a@example.com", "password": "wrong password"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["error"])
}

func TestAuthHandler_Me(t *testing.T) {
	f := newFixture(t)
	h, _ := newAuthHandler(f)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithUserEmail(req.Context(), testEmail))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.JSONEq(t, `{"email":"writer@example.com"}`, rec.Body.String())
}
