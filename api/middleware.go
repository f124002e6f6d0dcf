package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/models"
)

// SessionTTL is how long an issued bearer token stays valid.
const SessionTTL = 30 * 24 * time.Hour

// MiddlewareDB is a struct that holds the databases the auth layer needs
type MiddlewareDB struct {
	DB  databases.UserDatabase
	SDB databases.SessionDatabase
}

var authenticator auth.Authenticator
var cache store.Cache
var sessionDB databases.SessionDatabase

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user's id injected by Middleware. Handlers
// must take the caller identity from here, never from request bodies.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// WithUserID returns a request carrying the given user id in its context.
// Exported for handler tests.
func WithUserID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, id))
}

// Middleware adds bearer session authentication around accessing the routes
// and injects the session's subject into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			// the token cache is process-local; fall back to the
			// sessions collection so tokens survive restarts
			user, err = authenticateFromSession(r)
		}
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		next.ServeHTTP(w, WithUserID(r, user.ID()))
	})
}

func authenticateFromSession(r *http.Request) (auth.Info, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || sessionDB == nil {
		return nil, fmt.Errorf("no bearer token")
	}
	session, err := sessionDB.FindOne(r.Context(), bson.M{"token": token})
	if err != nil {
		return nil, fmt.Errorf("unknown session token")
	}
	if session.ExpiresAt.Time().Before(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}
	authUser := auth.NewDefaultUser(session.UserID, session.UserID, nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)
	return authUser, nil
}

// CreateToken authenticates basic credentials and returns a bearer token
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	user, err := m.DB.FindOne(r.Context(), bson.M{"email": email})
	if err != nil {
		http.Error(w, "failed to get user by email", http.StatusUnauthorized)
		return
	}

	token := uuid.New().String()
	authUser := auth.NewDefaultUser(email, user.ID, nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	now := time.Now()
	_, err = m.SDB.InsertOne(r.Context(), models.Session{
		ID:        primitive.NewObjectID().Hex(),
		Token:     token,
		UserID:    user.ID,
		CreatedAt: primitive.NewDateTimeFromTime(now),
		ExpiresAt: primitive.NewDateTimeFromTime(now.Add(SessionTTL)),
	})
	if err != nil {
		zap.S().With(err).Error("failed to persist session")
	}

	responseBody, err := json.Marshal(map[string]string{
		"token": token,
		"_id":   user.ID,
	})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), SessionTTL)
	sessionDB = m.SDB
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser validates a user's basic credentials against the users collection
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := m.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("no matching email found")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	return auth.NewDefaultUser(email, user.ID, nil, nil), nil
}

// RevokeToken revokes a token and removes the matching session row
func (m MiddlewareDB) RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	if err := m.SDB.DeleteOne(r.Context(), bson.M{"token": reqToken}); err != nil {
		zap.S().With(err).Error("failed to delete session")
	}
	body := fmt.Sprintf(`{"revoked token": "%s"}`, reqToken)
	w.Write([]byte(body))
}
