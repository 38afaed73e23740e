package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenochat-app/backend/internal/auth"
	"github.com/xenochat-app/backend/internal/middleware"
	"github.com/xenochat-app/backend/internal/models"
	"github.com/xenochat-app/backend/internal/repositories"
	"github.com/xenochat-app/backend/pkg/stream"
	"github.com/xenochat-app/backend/validators"
)

// fakeUserRepo is an in-memory UserRepository mirroring the Mongo
// implementation's semantics, including $addToSet-style friend mutation.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.copyUser(user), nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return f.copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if upd.Username != "" {
		user.Username = upd.Username
	}
	if upd.Bio != "" {
		user.Bio = upd.Bio
	}
	if upd.Location != "" {
		user.Location = upd.Location
	}
	if upd.ProfilePic != "" {
		user.ProfilePic = upd.ProfilePic
	}
	if upd.SetOnboarded {
		user.IsOnboarded = true
	}
	return f.copyUser(user), nil
}

func (f *fakeUserRepo) GetRecommended(_ context.Context, userID primitive.ObjectID, excludeFriends []primitive.ObjectID, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := map[primitive.ObjectID]bool{userID: true}
	for _, id := range excludeFriends {
		excluded[id] = true
	}
	out := []models.User{}
	for _, u := range f.users {
		if excluded[u.ID] || !u.IsOnboarded {
			continue
		}
		out = append(out, *f.copyUser(u))
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PublicUser{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, models.PublicUser{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic, Bio: u.Bio})
		}
	}
	return out, nil
}

func (f *fakeUserRepo) AddFriend(_ context.Context, userID, friendID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, id := range user.Friends {
		if id == friendID {
			return nil
		}
	}
	user.Friends = append(user.Friends, friendID)
	return nil
}

func (f *fakeUserRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeUserRepo) copyUser(u *models.User) *models.User {
	cp := *u
	cp.Friends = append([]primitive.ObjectID{}, u.Friends...)
	return &cp
}

// fakeRequestRepo is an in-memory FriendRequestRepository enforcing the
// unique-pair invariant the Mongo index provides.
type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.FriendRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[primitive.ObjectID]*models.FriendRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *models.FriendRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairKey := repositories.PairKey(req.Sender, req.Recipient)
	for _, r := range f.requests {
		if r.PairKey == pairKey {
			return repositories.ErrDuplicate
		}
	}
	req.ID = primitive.NewObjectID()
	req.Status = models.StatusPending
	req.PairKey = pairKey
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) FindBetween(_ context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairKey := repositories.PairKey(a, b)
	for _, r := range f.requests {
		if r.PairKey == pairKey {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeRequestRepo) MarkAccepted(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	req.Status = models.StatusAccepted
	return nil
}

func (f *fakeRequestRepo) ListByRecipient(_ context.Context, recipient primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.FriendRequest{}
	for _, r := range f.requests {
		if r.Recipient == recipient && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListBySender(_ context.Context, sender primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.FriendRequest{}
	for _, r := range f.requests {
		if r.Sender == sender && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) EnsureIndexes(context.Context) error { return nil }

// fakeChat records identity upserts and mints predictable tokens.
type fakeChat struct {
	mu        sync.Mutex
	upserts   []stream.Identity
	upsertErr error
	tokenErr  error
}

func (f *fakeChat) UpsertIdentity(_ context.Context, identity stream.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, identity)
	return nil
}

func (f *fakeChat) CreateUserToken(userID string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "chat-token-" + userID, nil
}

func (f *fakeChat) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

// fakeUploader stands in for the asset host.
type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) UploadImage(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// testEnv wires the full router against in-memory fakes, in the shape of
// the production wiring.
type testEnv struct {
	e        *echo.Echo
	users    *fakeUserRepo
	requests *fakeRequestRepo
	chat     *fakeChat
	assets   *fakeUploader
	sessions *auth.SessionIssuer
}

func newTestEnv() *testEnv {
	e := echo.New()
	e.Validator = validators.NewValidator()

	users := newFakeUserRepo()
	requests := newFakeRequestRepo()
	chat := &fakeChat{}
	assets := &fakeUploader{url: "https://cdn.example.com/pic.png"}
	sessions := auth.NewSessionIssuer("test-secret")

	requireSession := middleware.SessionAuth(sessions, users)
	NewAuthHandler(users, sessions, chat, assets).RegisterAuthRoutes(e.Group("/api/auth"), requireSession)
	NewUserHandler(users, requests).RegisterUserRoutes(e.Group("/api/users", requireSession))
	NewChatHandler(chat).RegisterChatRoutes(e.Group("/api/chat", requireSession))

	return &testEnv{e: e, users: users, requests: requests, chat: chat, assets: assets, sessions: sessions}
}

func (te *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	te.e.ServeHTTP(rec, req)
	return rec
}

// seedUser inserts a user directly into the fake store.
func (te *testEnv) seedUser(t *testing.T, username, email, password string, onboarded bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		IsOnboarded: onboarded,
	}
	require.NoError(t, te.users.CreateUser(context.Background(), user))
	return user
}

// cookie returns a valid session cookie for the given user.
func (te *testEnv) cookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, err := te.sessions.Issue(user.ID.Hex())
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

// storedUser re-reads a user from the fake store.
func (te *testEnv) storedUser(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	user, err := te.users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.CookieName {
			return ck
		}
	}
	return nil
}
