package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
)

type credentialStore map[string]*models.User

func (s credentialStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s credentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s credentialStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := s[username]
	return ok, nil
}

func (s credentialStore) Create(ctx context.Context, user *models.User) error {
	s[user.Username] = user
	return nil
}

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	store := credentialStore{
		"alice": {ID: "u1", Username: "alice", PasswordHash: string(hash), Role: models.RoleInstructor},
	}
	return service.NewAuthService(store, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "lms-api",
	})
}

func authRouter(authn gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", authn, func(c *gin.Context) {
		identity := Identity(c)
		c.JSON(http.StatusOK, identity)
	})
	return r
}

func TestJWTAcceptsValidToken(t *testing.T) {
	svc := newTestAuthService(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	r := authRouter(JWT(svc))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.Contains(t, w.Body.String(), models.RoleInstructor)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	r := authRouter(JWT(newTestAuthService(t)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	r := authRouter(JWT(newTestAuthService(t)))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsGarbageToken(t *testing.T) {
	r := authRouter(JWT(newTestAuthService(t)))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBasicAuthAcceptsValidCredentials(t *testing.T) {
	r := authRouter(BasicAuth(newTestAuthService(t)))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("alice", "password123")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestBasicAuthRejectsWrongPassword(t *testing.T) {
	r := authRouter(BasicAuth(newTestAuthService(t)))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("alice", "incorrect")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBasicAuthChallengesMissingCredentials(t *testing.T) {
	r := authRouter(BasicAuth(newTestAuthService(t)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
}
