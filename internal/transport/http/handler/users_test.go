package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gym-api/internal/application/user"
	"github.com/gym-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.UserProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	users, _ := args.Get(0).([]domain.User)
	return users, args.String(1), args.Error(2)
}

func (m *mockUserSvc) Update(ctx context.Context, userID string, req domain.UpdateUserRequest, asAdmin bool) (*domain.User, error) {
	args := m.Called(ctx, userID, req, asAdmin)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserSvc) UploadAvatar(ctx context.Context, userID string, in user.AvatarUpload) (*domain.User, error) {
	args := m.Called(ctx, userID, in.Filename)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) AvatarURL(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// --- Me / Get ---

func TestMe_ReturnsProfile(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Profile", mock.Anything, "u1").Return(&domain.UserProfile{
		User:  &domain.User{UserID: "u1", Email: "a@x.com", UserType: domain.RoleUser},
		Posts: []domain.PostDetail{},
	}, nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Me), rr, bearerReq(t, p, http.MethodGet, "/v1/users/me", "u1", domain.RoleUser, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, []interface{}{}, body["posts"])
	assert.NotContains(t, body, "membership")
}

func TestMe_Unauthenticated(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGet_NotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Profile", mock.Anything, "ghost").Return(nil, fmt.Errorf("user not found: %w", domain.ErrNotFound))
	h := NewUserHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/users/ghost", "u1", domain.RoleUser, nil), "ghost")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "user not found", decodeEnvelope(t, rr).Error)
}

// --- List ---

func TestList_PassesPaging(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything, 2, "abc").Return([]domain.User{{UserID: "u1"}, {UserID: "u2"}}, "next", nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/users/all?limit=2&cursor=abc", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var page UserPageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, "next", page.NextCursor)
}

func TestList_EmptyIsArray(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything, 0, "").Return(nil, "", nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/users/all", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

// --- Update ---

func TestUpdate_OtherUserForbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)

	name := "Bob"
	r := withChiID(bearerReq(t, p, http.MethodPatch, "/v1/users/u2", "u1", domain.RoleUser, mustJSON(t, domain.UpdateUserRequest{FirstName: &name})), "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_SelfIsNotAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	name := "Bob"
	req := domain.UpdateUserRequest{FirstName: &name}
	svc.On("Update", mock.Anything, "u1", req, false).Return(&domain.User{UserID: "u1", FirstName: name}, nil)
	h := NewUserHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodPatch, "/v1/users/u1", "u1", domain.RoleUser, mustJSON(t, req)), "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestUpdate_InvalidPhone(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})

	phone := "12345"
	r := withChiID(bearerReq(t, p, http.MethodPatch, "/v1/users/u1", "u1", domain.RoleUser, mustJSON(t, domain.UpdateUserRequest{PhoneNumber: &phone})), "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAdminUpdate_PassesAsAdmin(t *testing.T) {
	svc := &mockUserSvc{}
	role := domain.RoleAdmin
	req := domain.UpdateUserRequest{UserType: &role}
	svc.On("Update", mock.Anything, "u2", req, true).Return(&domain.User{UserID: "u2", UserType: role}, nil)
	h := NewUserHandler(svc)

	r := withChiID(jsonReq(http.MethodPatch, "/v1/users/admin/u2", mustJSON(t, req)), "u2")
	rr := httptest.NewRecorder()
	h.AdminUpdate(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Delete ---

func TestDelete_OK(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "u2").Return(nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.Delete(rr, withChiID(httptest.NewRequest(http.MethodDelete, "/v1/users/admin/u2", nil), "u2"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user deleted", decodeEnvelope(t, rr).Message)
}

// --- avatar ---

func TestUploadAvatar_OK(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("UploadAvatar", mock.Anything, "u1", "me.png").Return(&domain.User{UserID: "u1", Avatar: "avatars/u1/x.png"}, nil)
	h := NewUserHandler(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := bearerReq(t, p, http.MethodPut, "/v1/users/me/avatar", "u1", domain.RoleUser, buf.Bytes())
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.UploadAvatar), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestUploadAvatar_MissingField(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	r := bearerReq(t, p, http.MethodPut, "/v1/users/me/avatar", "u1", domain.RoleUser, buf.Bytes())
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.UploadAvatar), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "missing avatar field", decodeEnvelope(t, rr).Error)
}

func TestAvatar_Redirects(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("AvatarURL", mock.Anything, "u1").Return("https://bucket.example/avatars/u1/x.png?sig=1", nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.Avatar(rr, withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1/avatar", nil), "u1"))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "https://bucket.example/avatars/u1/x.png?sig=1", rr.Header().Get("Location"))
}

func TestAvatar_NoneSet(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("AvatarURL", mock.Anything, "u1").Return("", fmt.Errorf("user has no avatar: %w", domain.ErrNotFound))
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.Avatar(rr, withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1/avatar", nil), "u1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
