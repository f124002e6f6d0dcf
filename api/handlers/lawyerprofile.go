package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/config"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/models"
)

// LawyerProfile exported for testing purposes
type LawyerProfile struct {
	DB  databases.LawyerProfileDatabase
	UDB databases.UserDatabase
}

type createLawyerProfileRequest struct {
	Specialization string   `json:"specialization"`
	Location       string   `json:"location"`
	Country        string   `json:"country"`
	Experience     int      `json:"experience"`
	BarNumber      string   `json:"barNumber"`
	Languages      []string `json:"languages"`
	HourlyRate     float64  `json:"hourlyRate"`
	Bio            string   `json:"bio"`
	Whatsapp       string   `json:"whatsapp"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
}

func (req *createLawyerProfileRequest) validate() []models.FieldError {
	var errs []models.FieldError
	if req.Specialization == "" {
		errs = append(errs, models.FieldError{Field: "specialization", Message: "specialization is required"})
	}
	if req.Location == "" {
		errs = append(errs, models.FieldError{Field: "location", Message: "location is required"})
	}
	if len(req.Country) != 2 {
		errs = append(errs, models.FieldError{Field: "country", Message: "country must be a 2-letter code"})
	}
	if req.Experience < 0 {
		errs = append(errs, models.FieldError{Field: "experience", Message: "experience must not be negative"})
	}
	if req.HourlyRate < 0 {
		errs = append(errs, models.FieldError{Field: "hourlyRate", Message: "hourlyRate must not be negative"})
	}
	return errs
}

// CreateLawyerProfileHandler creates the caller's lawyer profile. Rejected
// for callers without the lawyer role, and for lawyers who already have one.
func (l LawyerProfile) CreateLawyerProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	user, err := l.UDB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}
	if user.Role != models.RoleLawyer {
		config.ErrorStatus("only lawyers can create profiles", http.StatusForbidden, w, errNotALawyer)
		return
	}

	var requestBody createLawyerProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if errs := requestBody.validate(); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	if count, err := l.DB.CountDocuments(ctx, bson.M{"userId": userID}); err == nil && count > 0 {
		writeValidationError(w, []models.FieldError{
			{Field: "userId", Message: "a profile already exists for this user"},
		})
		return
	}

	languages := requestBody.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	profile := models.LawyerProfile{
		ID:             primitive.NewObjectID().Hex(),
		UserID:         userID,
		Specialization: requestBody.Specialization,
		Location:       requestBody.Location,
		Country:        requestBody.Country,
		Experience:     requestBody.Experience,
		BarNumber:      requestBody.BarNumber,
		Languages:      languages,
		HourlyRate:     requestBody.HourlyRate,
		Bio:            requestBody.Bio,
		EloRating:      models.DefaultEloRating,
		Status:         models.LawyerStatusOffline,
		Whatsapp:       requestBody.Whatsapp,
		Email:          requestBody.Email,
		Phone:          requestBody.Phone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = l.DB.InsertOne(ctx, profile)
	if err != nil {
		config.ErrorStatus("failed to create lawyer profile", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// MyLawyerProfileHandler returns the caller's own lawyer profile
func (l LawyerProfile) MyLawyerProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	profile, err := l.DB.FindOne(ctx, bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to get lawyer profile", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateMyLawyerProfileHandler updates owner-mutable profile fields
func (l LawyerProfile) UpdateMyLawyerProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	// owner updates may not touch admin- or system-managed fields
	for _, locked := range []string{"_id", "userId", "verified", "rating", "reviewCount", "hearings", "eloRating", "createdAt"} {
		delete(requestBody, locked)
	}
	requestBody["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	res, err := l.DB.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": requestBody})
	if err != nil {
		config.ErrorStatus("failed to update lawyer profile", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("failed to get lawyer profile", http.StatusNotFound, w, errProfileNotFound)
		return
	}

	profile, err := l.DB.FindOne(ctx, bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to get lawyer profile", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateLawyerStatusHandler toggles the caller's availability status and
// online flag
func (l LawyerProfile) UpdateLawyerStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody struct {
		Status   string `json:"status"`
		IsOnline bool   `json:"isOnline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	switch requestBody.Status {
	case models.LawyerStatusAvailable, models.LawyerStatusBusy, models.LawyerStatusOffline:
	default:
		writeValidationError(w, []models.FieldError{
			{Field: "status", Message: "status must be \"available\", \"busy\" or \"offline\""},
		})
		return
	}

	update := bson.M{"$set": bson.M{
		"status":    requestBody.Status,
		"isOnline":  requestBody.IsOnline,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	res, err := l.DB.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		config.ErrorStatus("failed to update lawyer status", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("failed to get lawyer profile", http.StatusNotFound, w, errProfileNotFound)
		return
	}

	profile, err := l.DB.FindOne(ctx, bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to get lawyer profile", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LawyerProfilesHandler lists the public lawyer directory, optionally
// filtered by specialization, country and status, ordered by reputation
// score descending
func (l LawyerProfile) LawyerProfilesHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if specialization := r.URL.Query().Get("specialization"); specialization != "" {
		filter["specialization"] = specialization
	}
	if country := r.URL.Query().Get("country"); country != "" {
		filter["country"] = country
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	zap.S().Debugw("listing lawyer profiles", "filter", filter)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	// createdAt breaks ties so equal ratings keep a stable order
	sort := options.Find().SetSort(bson.D{{Key: "eloRating", Value: -1}, {Key: "createdAt", Value: 1}})
	profiles, err := l.DB.Find(ctx, filter, sort)
	if err != nil {
		config.ErrorStatus("failed to get lawyer profiles", http.StatusNotFound, w, err)
		return
	}

	// attach the owning user's display fields per row; a per-row lookup is
	// acceptable at directory scale
	withUsers := make([]models.LawyerProfileWithUser, 0, len(profiles))
	for _, profile := range profiles {
		withUsers = append(withUsers, models.LawyerProfileWithUser{
			LawyerProfile: profile,
			User:          fetchUserDisplay(ctx, l.UDB, profile.UserID),
		})
	}

	b, err := json.Marshal(withUsers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LawyerProfileByIDHandler returns a single public lawyer profile by its id
func (l LawyerProfile) LawyerProfileByIDHandler(w http.ResponseWriter, r *http.Request) {
	profileID := mux.Vars(r)["profile_id"]

	if _, err := primitive.ObjectIDFromHex(profileID); err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	profile, err := l.DB.FindOne(ctx, bson.M{"_id": profileID})
	if err != nil {
		config.ErrorStatus("failed to get lawyer profile by ID", http.StatusNotFound, w, err)
		return
	}

	resp := models.LawyerProfileWithUser{
		LawyerProfile: *profile,
		User:          fetchUserDisplay(ctx, l.UDB, profile.UserID),
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

var (
	errNotALawyer      = errors.New("caller does not have the lawyer role")
	errProfileNotFound = errors.New("no lawyer profile for user")
)
