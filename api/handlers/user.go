package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/config"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/models"
)

// User exported for testing purposes
type User struct {
	DB  databases.UserDatabase
	LDB databases.LawyerProfileDatabase
}

type registerUserRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
}

type currentUserResponse struct {
	models.User
	LawyerProfile *models.LawyerProfile `json:"lawyerProfile"`
}

// UserCreateHandler registers a new user. The email is the login key, so a
// taken email is rejected outright; profile edits for an existing account go
// through the authenticated routes.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	var errs []models.FieldError
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))
	if requestBody.Email == "" {
		errs = append(errs, models.FieldError{Field: "email", Message: "email is required"})
	}
	if len(requestBody.Password) < 8 {
		errs = append(errs, models.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	count, err := u.DB.CountDocuments(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("failed to check for existing user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		writeValidationError(w, []models.FieldError{
			{Field: "email", Message: "email is already registered"},
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:              primitive.NewObjectID().Hex(),
		Email:           requestBody.Email,
		Password:        string(hash),
		FirstName:       requestBody.FirstName,
		LastName:        requestBody.LastName,
		ProfileImageURL: requestBody.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CurrentUserHandler returns the session's user, with the lawyer profile
// embedded when the user has the lawyer role
func (u User) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	resp := currentUserResponse{User: *user}
	if user.Role == models.RoleLawyer {
		profile, err := u.LDB.FindOne(ctx, bson.M{"userId": userID})
		if err == nil {
			resp.LawyerProfile = profile
		}
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateUserRoleHandler sets the user's role during onboarding. A role may
// be chosen exactly once.
func (u User) UpdateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if requestBody.Role != models.RoleUser && requestBody.Role != models.RoleLawyer {
		writeValidationError(w, []models.FieldError{
			{Field: "role", Message: "role must be \"user\" or \"lawyer\""},
		})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	if user.Role != "" {
		config.ErrorStatus("role already set", http.StatusForbidden, w, errRoleAlreadySet)
		return
	}

	update := bson.M{"$set": bson.M{
		"role":      requestBody.Role,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}
	_, err = u.DB.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		config.ErrorStatus("failed to update role", http.StatusInternalServerError, w, err)
		return
	}

	user.Role = requestBody.Role
	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

var errRoleAlreadySet = errors.New("role can only be selected once")

// fetchUserDisplay is a small helper shared by handlers that need to attach
// user display data to list rows.
func fetchUserDisplay(ctx context.Context, db databases.UserDatabase, id string) models.UserDisplay {
	user, err := db.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.UserDisplay{}
	}
	return user.Display()
}
