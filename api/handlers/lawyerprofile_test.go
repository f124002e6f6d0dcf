package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/api/handlers"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/databases/mocks"
	"github.com/lexconnect/lexconnect-api/models"
)

func lawyerUserDB(role string) *MockDatabaseHelper {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = "665f1f77bcf86cd799439011"
		(*arg).FirstName = "Asha"
		(*arg).LastName = "Rao"
		(*arg).Role = role
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)
	return db
}

func TestLawyerProfile_CreateHandlerNotALawyer(t *testing.T) {
	body := strings.NewReader(`{"specialization":"criminal","location":"Mumbai","country":"IN"}`)
	req, err := http.NewRequest("POST", "/api/v1/lawyer-profiles", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, "665f1f77bcf86cd799439011")

	db := lawyerUserDB(models.RoleUser)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "only lawyers can create profiles")
}

func TestLawyerProfile_CreateHandlerValidation(t *testing.T) {
	body := strings.NewReader(`{"specialization":"","location":"","country":"IND"}`)
	req, err := http.NewRequest("POST", "/api/v1/lawyer-profiles", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, "665f1f77bcf86cd799439011")

	db := lawyerUserDB(models.RoleLawyer)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "specialization is required")
	assert.Contains(t, rr.Body.String(), "country must be a 2-letter code")
}

func TestLawyerProfile_CreateHandlerDuplicate(t *testing.T) {
	body := strings.NewReader(`{"specialization":"criminal","location":"Mumbai","country":"IN"}`)
	req, err := http.NewRequest("POST", "/api/v1/lawyer-profiles", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, "665f1f77bcf86cd799439011")

	db := lawyerUserDB(models.RoleLawyer)
	profileConn := &mocks.CollectionHelper{}
	profileConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "lawyerProfiles").Return(profileConn)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "a profile already exists for this user")
}

func TestLawyerProfile_CreateHandlerDefaults(t *testing.T) {
	body := strings.NewReader(`{"specialization":"criminal","location":"Mumbai","country":"IN","experience":5}`)
	req, err := http.NewRequest("POST", "/api/v1/lawyer-profiles", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, "665f1f77bcf86cd799439011")

	db := lawyerUserDB(models.RoleLawyer)
	profileConn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}
	profileConn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	profileConn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil)
	db.On("Collection", "lawyerProfiles").Return(profileConn)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLawyerProfileHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"eloRating":1500`)
	assert.Contains(t, rr.Body.String(), `"status":"offline"`)
	assert.Contains(t, rr.Body.String(), `"languages":["en"]`)
}

func TestLawyerProfile_ProfilesHandlerEmbedsUsers(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/lawyer-profiles?country=IN", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := lawyerUserDB(models.RoleLawyer)
	profileConn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.LawyerProfile)
		*arg = []models.LawyerProfile{
			{ID: "aaaaaaaaaaaaaaaaaaaaaaaa", UserID: "665f1f77bcf86cd799439011", Specialization: "criminal", Country: "IN", EloRating: 1530},
		}
	})
	profileConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "lawyerProfiles").Return(profileConn)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.LawyerProfilesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"specialization":"criminal"`)
	assert.Contains(t, rr.Body.String(), `"firstName":"Asha"`)
}

func TestLawyerProfile_ProfilesHandlerSortsByRatingThenCreation(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/lawyer-profiles", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	profileConn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	var sortArg interface{}
	cursor.On("Decode", mock.Anything).Return(nil)
	profileConn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil).Run(func(args mock.Arguments) {
		sortArg = args.Get(2).(*options.FindOptions).Sort
	})
	db.On("Collection", "lawyerProfiles").Return(profileConn)

	l := handlers.LawyerProfile{
		DB:  databases.NewLawyerProfileDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.LawyerProfilesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bson.D{{Key: "eloRating", Value: -1}, {Key: "createdAt", Value: 1}}, sortArg)
}

func TestLawyerProfile_ProfileByIDHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/lawyer-profiles/asdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"profile_id": "asdf"})

	l := handlers.LawyerProfile{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.LawyerProfileByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestLawyerProfile_UpdateStatusHandlerInvalidStatus(t *testing.T) {
	body := strings.NewReader(`{"status":"away"}`)
	req, err := http.NewRequest("PATCH", "/api/v1/lawyer-profiles/me/status", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, "665f1f77bcf86cd799439011")

	l := handlers.LawyerProfile{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.UpdateLawyerStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "status must be")
}
