package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/logging"
	"github.com/mpc180222/messagely/internal/server/auth"
	"github.com/mpc180222/messagely/internal/server/models"
	"github.com/mpc180222/messagely/internal/server/services"
)

const testSecret = "test-secret"

// --- fakes ---

type fakeUserService struct {
	registerView  *models.UserPublic
	registerToken string
	registerErr   error
	registered    []services.RegisterParams

	loginToken string
	loginErr   error

	publicOut *models.UserPublic
	publicErr error

	listOut []models.UserSummary
	listErr error
}

func (f *fakeUserService) Register(ctx context.Context, p services.RegisterParams) (*models.UserPublic, string, error) {
	f.registered = append(f.registered, p)
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	return f.registerView, f.registerToken, nil
}

func (f *fakeUserService) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginToken, nil
}

func (f *fakeUserService) GetPublic(ctx context.Context, username string) (*models.UserPublic, error) {
	if f.publicErr != nil {
		return nil, f.publicErr
	}
	return f.publicOut, nil
}

func (f *fakeUserService) ListAll(ctx context.Context) ([]models.UserSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type sendCall struct {
	principal, declaredFrom, to, body string
}

type fakeMessageService struct {
	sendOut   *models.Message
	sendErr   error
	sendCalls []sendCall

	getOut *models.MessageDetail
	getErr error

	markOut *models.ReadReceipt
	markErr error

	fromOut []models.OutgoingMessage
	fromErr error

	toOut []models.IncomingMessage
	toErr error
}

func (f *fakeMessageService) Send(ctx context.Context, principal, declaredFrom, to, body string) (*models.Message, error) {
	f.sendCalls = append(f.sendCalls, sendCall{principal, declaredFrom, to, body})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendOut, nil
}

func (f *fakeMessageService) Get(ctx context.Context, principal, id string) (*models.MessageDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeMessageService) MarkRead(ctx context.Context, principal, id string) (*models.ReadReceipt, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	return f.markOut, nil
}

func (f *fakeMessageService) ListFrom(ctx context.Context, principal, username string) ([]models.OutgoingMessage, error) {
	if f.fromErr != nil {
		return nil, f.fromErr
	}
	return f.fromOut, nil
}

func (f *fakeMessageService) ListTo(ctx context.Context, principal, username string) ([]models.IncomingMessage, error) {
	if f.toErr != nil {
		return nil, f.toErr
	}
	return f.toOut, nil
}

// --- helpers ---

func newTestServer(t *testing.T, us UserService, ms MessageService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewServer(":0", logger, us, ms, testSecret)
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, username string) string {
	t.Helper()
	tok, err := auth.GenerateToken(username, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func assertErrorShape(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object, got %v", body)
	assert.Equal(t, float64(status), errObj["status"])
	assert.NotEmpty(t, errObj["message"])
}

// --- login / register ---

func TestLogin_Success(t *testing.T) {
	us := &fakeUserService{loginToken: "tok-123"}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/login", "", gin.H{"username": "alice", "password": "pw1"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Logged in", body["message"])
	assert.Equal(t, "tok-123", body["token"])
}

func TestLogin_MissingFields(t *testing.T) {
	s := newTestServer(t, &fakeUserService{}, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/login", "", gin.H{"username": "alice"})

	assertErrorShape(t, w, http.StatusBadRequest)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &fakeUserService{loginErr: common.ErrorUnauthorized}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/login", "", gin.H{"username": "alice", "password": "bad"})

	assertErrorShape(t, w, http.StatusUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	us := &fakeUserService{loginErr: common.ErrorNotFound}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/login", "", gin.H{"username": "ghost", "password": "pw"})

	assertErrorShape(t, w, http.StatusNotFound)
}

func TestRegister_Success(t *testing.T) {
	us := &fakeUserService{
		registerView:  &models.UserPublic{Username: "alice"},
		registerToken: "tok-reg",
	}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/register", "", gin.H{
		"username": "alice", "password": "pw1",
		"first_name": "Alice", "last_name": "Adams", "phone": "+15550001111",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tok-reg", decodeBody(t, w)["token"])
	require.Len(t, us.registered, 1)
	assert.Equal(t, "alice", us.registered[0].Username)
}

func TestRegister_MissingField(t *testing.T) {
	us := &fakeUserService{}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/register", "", gin.H{
		"username": "alice", "password": "pw1",
	})

	assertErrorShape(t, w, http.StatusBadRequest)
	assert.Empty(t, us.registered)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	us := &fakeUserService{registerErr: common.ErrorAlreadyExists}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodPost, "/register", "", gin.H{
		"username": "alice", "password": "pw1",
		"first_name": "Alice", "last_name": "Adams", "phone": "+15550001111",
	})

	assertErrorShape(t, w, http.StatusConflict)
}

// --- auth middleware ---

func TestAuth_MissingToken(t *testing.T) {
	s := newTestServer(t, &fakeUserService{}, &fakeMessageService{})

	w := doRequest(t, s, http.MethodGet, "/users", "", nil)

	assertErrorShape(t, w, http.StatusUnauthorized)
}

func TestAuth_GarbageToken(t *testing.T) {
	s := newTestServer(t, &fakeUserService{}, &fakeMessageService{})

	w := doRequest(t, s, http.MethodGet, "/users", "not-a-jwt", nil)

	assertErrorShape(t, w, http.StatusUnauthorized)
}

func TestAuth_ValidTokenPassesPrincipal(t *testing.T) {
	ms := &fakeMessageService{sendOut: &models.Message{ID: "m-1", FromUsername: "alice", ToUsername: "bob", Body: "hi"}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodPost, "/messages", tokenFor(t, "alice"), gin.H{"to_username": "bob", "body": "hi"})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, ms.sendCalls, 1)
	assert.Equal(t, "alice", ms.sendCalls[0].principal)
}

// --- users ---

func TestListUsers(t *testing.T) {
	us := &fakeUserService{listOut: []models.UserSummary{{Username: "alice"}, {Username: "bob"}}}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodGet, "/users", tokenFor(t, "alice"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	users := decodeBody(t, w)["users"].([]any)
	assert.Len(t, users, 2)
}

func TestGetUser_Self(t *testing.T) {
	us := &fakeUserService{publicOut: &models.UserPublic{Username: "alice", FirstName: "Alice"}}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodGet, "/users/alice", tokenFor(t, "alice"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
}

func TestGetUser_OtherUserForbidden(t *testing.T) {
	us := &fakeUserService{publicOut: &models.UserPublic{Username: "alice"}}
	s := newTestServer(t, us, &fakeMessageService{})

	w := doRequest(t, s, http.MethodGet, "/users/alice", tokenFor(t, "bob"), nil)

	assertErrorShape(t, w, http.StatusForbidden)
}

func TestUserMessagesFrom(t *testing.T) {
	ms := &fakeMessageService{fromOut: []models.OutgoingMessage{{ID: "m-1", ToUser: models.UserSummary{Username: "bob"}}}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodGet, "/users/alice/from", tokenFor(t, "alice"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	messages := decodeBody(t, w)["messages"].([]any)
	assert.Len(t, messages, 1)
}

func TestUserMessagesTo_Empty(t *testing.T) {
	ms := &fakeMessageService{toOut: []models.IncomingMessage{}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodGet, "/users/bob/to", tokenFor(t, "bob"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	messages := decodeBody(t, w)["messages"].([]any)
	assert.Len(t, messages, 0)
}

// --- messages ---

func TestGetMessage_Party(t *testing.T) {
	ms := &fakeMessageService{getOut: &models.MessageDetail{
		ID:       "m-1",
		Body:     "hi",
		FromUser: models.UserSummary{Username: "alice"},
		ToUser:   models.UserSummary{Username: "bob"},
	}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodGet, "/messages/m-1", tokenFor(t, "alice"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	msg := decodeBody(t, w)["message"].(map[string]any)
	assert.Equal(t, "hi", msg["body"])
	assert.Nil(t, msg["read_at"])
}

func TestGetMessage_ThirdPartyForbidden(t *testing.T) {
	ms := &fakeMessageService{getErr: common.ErrorForbidden}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodGet, "/messages/m-1", tokenFor(t, "mallory"), nil)

	assertErrorShape(t, w, http.StatusForbidden)
}

func TestPostMessage_MissingBody(t *testing.T) {
	ms := &fakeMessageService{}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodPost, "/messages", tokenFor(t, "alice"), gin.H{"to_username": "bob"})

	assertErrorShape(t, w, http.StatusBadRequest)
	assert.Empty(t, ms.sendCalls)
}

func TestPostMessage_DeclaredSenderPassedThrough(t *testing.T) {
	ms := &fakeMessageService{sendOut: &models.Message{ID: "m-1"}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodPost, "/messages", tokenFor(t, "alice"),
		gin.H{"from_username": "alice", "to_username": "bob", "body": "hi"})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, ms.sendCalls, 1)
	assert.Equal(t, "alice", ms.sendCalls[0].declaredFrom)
}

func TestMarkMessageRead(t *testing.T) {
	now := time.Now()
	ms := &fakeMessageService{markOut: &models.ReadReceipt{ID: "m-1", ReadAt: now}}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodPost, "/messages/m-1/read", tokenFor(t, "bob"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	msg := decodeBody(t, w)["message"].(map[string]any)
	assert.Equal(t, "m-1", msg["id"])
	assert.NotEmpty(t, msg["read_at"])
}

func TestMarkMessageRead_SenderForbidden(t *testing.T) {
	ms := &fakeMessageService{markErr: common.ErrorForbidden}
	s := newTestServer(t, &fakeUserService{}, ms)

	w := doRequest(t, s, http.MethodPost, "/messages/m-1/read", tokenFor(t, "alice"), nil)

	assertErrorShape(t, w, http.StatusForbidden)
}
