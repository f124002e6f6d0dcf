package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexconnect/lexconnect-api/api/handlers"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/databases/mocks"
	"github.com/lexconnect/lexconnect-api/models"
)

func TestAdmin_LoginHandlerInvalidCredentials(t *testing.T) {
	body := strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`)
	req, err := http.NewRequest("POST", "/api/v1/admin/login", body)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "admins").Return(conn)

	h := handlers.Admin{ADB: databases.NewAdminDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid credentials")
}

func TestAdmin_LoginHandlerIssuesJWT(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	defer os.Unsetenv("JWT_SECRET")

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)

	body := strings.NewReader(`{"email":"admin@example.com","password":"correct-horse"}`)
	req, err := http.NewRequest("POST", "/api/v1/admin/login", body)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admin)
		(*arg).ID = "665f1f77bcf86cd799439099"
		(*arg).Email = "admin@example.com"
		(*arg).Password = string(hash)
		(*arg).Roles = []string{"verifier"}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "admins").Return(conn)

	h := handlers.Admin{ADB: databases.NewAdminDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token":"`)
	assert.Contains(t, rr.Body.String(), `"email":"admin@example.com"`)
}

func adminToken(t *testing.T, secret, scope string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "665f1f77bcf86cd799439099",
		"scope": scope,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestAdmin_MiddlewareRejectsMissingToken(t *testing.T) {
	req, _ := http.NewRequest("POST", "/api/v1/admin/lawyer-profiles/1234/verify", nil)

	rr := httptest.NewRecorder()
	handlers.AdminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdmin_MiddlewareRejectsWrongScope(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	defer os.Unsetenv("JWT_SECRET")

	req, _ := http.NewRequest("POST", "/api/v1/admin/lawyer-profiles/1234/verify", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "test-jwt-secret", "user"))

	rr := httptest.NewRecorder()
	handlers.AdminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdmin_MiddlewareAcceptsAdminScope(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	defer os.Unsetenv("JWT_SECRET")

	req, _ := http.NewRequest("POST", "/api/v1/admin/lawyer-profiles/1234/verify", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "test-jwt-secret", "admin"))

	called := false
	rr := httptest.NewRecorder()
	handlers.AdminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	assert.True(t, called)
}

func TestAdmin_VerifyLawyerProfileHandlerInvalidID(t *testing.T) {
	req, _ := http.NewRequest("POST", "/api/v1/admin/lawyer-profiles/asdf/verify", nil)
	req = mux.SetURLVars(req, map[string]string{"profile_id": "asdf"})

	h := handlers.Admin{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VerifyLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestAdmin_VerifyLawyerProfileHandler(t *testing.T) {
	profileID := "665f1f77bcf86cd799439055"
	req, _ := http.NewRequest("POST", "/api/v1/admin/lawyer-profiles/"+profileID+"/verify", nil)
	req = mux.SetURLVars(req, map[string]string{"profile_id": profileID})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.LawyerProfile)
		(*arg).ID = profileID
		(*arg).Verified = true
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "lawyerProfiles").Return(conn)

	h := handlers.Admin{LDB: databases.NewLawyerProfileDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VerifyLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"verified":true`)
}
