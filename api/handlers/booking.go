package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/config"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/models"
)

// Booking exported for testing purposes
type Booking struct {
	DB  databases.BookingDatabase
	UDB databases.UserDatabase
	LDB databases.LawyerProfileDatabase
}

// eloCompletionBonus is added to a lawyer's reputation score when one of
// their bookings completes.
const eloCompletionBonus = 15

type createBookingRequest struct {
	LawyerID            string  `json:"lawyerId"`
	CaseTitle           string  `json:"caseTitle"`
	CaseDescription     string  `json:"caseDescription"`
	PreferredDate       string  `json:"preferredDate"`
	PreferredTime       string  `json:"preferredTime"`
	Budget              float64 `json:"budget"`
	ContactPreference   string  `json:"contactPreference"`
	ExternalContactInfo string  `json:"externalContactInfo"`
}

func (req *createBookingRequest) validate() []models.FieldError {
	var errs []models.FieldError
	if req.LawyerID == "" {
		errs = append(errs, models.FieldError{Field: "lawyerId", Message: "lawyerId is required"})
	}
	if req.CaseTitle == "" {
		errs = append(errs, models.FieldError{Field: "caseTitle", Message: "caseTitle is required"})
	}
	if req.CaseDescription == "" {
		errs = append(errs, models.FieldError{Field: "caseDescription", Message: "caseDescription is required"})
	}
	switch req.ContactPreference {
	case "", models.ContactPreferenceInApp, models.ContactPreferenceWhatsapp, models.ContactPreferenceEmail, models.ContactPreferencePhone:
	default:
		errs = append(errs, models.FieldError{Field: "contactPreference", Message: "contactPreference must be one of in-app, whatsapp, email, phone"})
	}
	if req.PreferredDate != "" {
		if _, err := time.Parse(time.RFC3339, req.PreferredDate); err != nil {
			errs = append(errs, models.FieldError{Field: "preferredDate", Message: "preferredDate must be an RFC3339 timestamp"})
		}
	}
	return errs
}

// CreateBookingHandler creates a consultation request from the session user
// to a lawyer. New bookings always start pending.
func (b Booking) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if errs := requestBody.validate(); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}
	if requestBody.LawyerID == userID {
		writeValidationError(w, []models.FieldError{
			{Field: "lawyerId", Message: "you cannot book yourself"},
		})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	lawyer, err := b.UDB.FindOne(ctx, bson.M{"_id": requestBody.LawyerID})
	if err != nil {
		config.ErrorStatus("failed to get lawyer by ID", http.StatusNotFound, w, err)
		return
	}
	if lawyer.Role != models.RoleLawyer {
		writeValidationError(w, []models.FieldError{
			{Field: "lawyerId", Message: "lawyerId does not reference a lawyer"},
		})
		return
	}

	contactPreference := requestBody.ContactPreference
	if contactPreference == "" {
		contactPreference = models.ContactPreferenceInApp
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	booking := models.Booking{
		ID:                  primitive.NewObjectID().Hex(),
		UserID:              userID,
		LawyerID:            requestBody.LawyerID,
		Status:              models.BookingStatusPending,
		CaseTitle:           requestBody.CaseTitle,
		CaseDescription:     requestBody.CaseDescription,
		PreferredTime:       requestBody.PreferredTime,
		Budget:              requestBody.Budget,
		ContactPreference:   contactPreference,
		ExternalContactInfo: requestBody.ExternalContactInfo,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if requestBody.PreferredDate != "" {
		parsed, _ := time.Parse(time.RFC3339, requestBody.PreferredDate)
		dt := primitive.NewDateTimeFromTime(parsed)
		booking.PreferredDate = &dt
	}

	_, err = b.DB.InsertOne(ctx, booking)
	if err != nil {
		config.ErrorStatus("failed to create booking", http.StatusInternalServerError, w, err)
		return
	}

	NotifyUser(booking.LawyerID, "booking_created", booking)

	bts, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(bts)
}

// BookingsByUserHandler lists the session user's bookings newest-first,
// embedding the lawyer's display data
func (b Booking) BookingsByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	bookings, err := b.DB.Find(ctx, bson.M{"userId": userID}, sort)
	if err != nil {
		config.ErrorStatus("failed to get bookings", http.StatusNotFound, w, err)
		return
	}

	withLawyers := make([]models.BookingWithLawyer, 0, len(bookings))
	for _, booking := range bookings {
		summary := models.LawyerSummary{}
		if lawyer, err := b.UDB.FindOne(ctx, bson.M{"_id": booking.LawyerID}); err == nil {
			summary.FirstName = lawyer.FirstName
			summary.LastName = lawyer.LastName
			summary.ProfileImageURL = lawyer.ProfileImageURL
		}
		if profile, err := b.LDB.FindOne(ctx, bson.M{"userId": booking.LawyerID}); err == nil {
			summary.Specialization = profile.Specialization
		}
		withLawyers = append(withLawyers, models.BookingWithLawyer{Booking: booking, Lawyer: summary})
	}

	bts, err := json.Marshal(withLawyers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// BookingsByLawyerHandler lists bookings addressed to the session user as a
// lawyer, newest-first, embedding the requesting user's display data
func (b Booking) BookingsByLawyerHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	bookings, err := b.DB.Find(ctx, bson.M{"lawyerId": userID}, sort)
	if err != nil {
		config.ErrorStatus("failed to get bookings", http.StatusNotFound, w, err)
		return
	}

	withUsers := make([]models.BookingWithUser, 0, len(bookings))
	for _, booking := range bookings {
		withUsers = append(withUsers, models.BookingWithUser{
			Booking: booking,
			User:    fetchUserDisplay(ctx, b.UDB, booking.UserID),
		})
	}

	bts, err := json.Marshal(withUsers)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// BookingByIDHandler returns a booking to one of its participants
func (b Booking) BookingByIDHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]
	userID := api.UserID(r)

	if _, err := primitive.ObjectIDFromHex(bookingID); err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	booking, err := b.DB.FindOne(ctx, bson.M{"_id": bookingID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return
	}
	if !booking.IsParticipant(userID) {
		config.ErrorStatus("unauthorized", http.StatusForbidden, w, errNotParticipant)
		return
	}

	bts, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// validTransition reports whether a booking may move from one status to
// another. Terminal states never transition again.
func validTransition(from, to string) bool {
	switch from {
	case models.BookingStatusPending:
		return to == models.BookingStatusAccepted ||
			to == models.BookingStatusRejected ||
			to == models.BookingStatusCancelled
	case models.BookingStatusAccepted:
		return to == models.BookingStatusCompleted ||
			to == models.BookingStatusCancelled
	default:
		return false
	}
}

// UpdateBookingStatusHandler transitions a booking's status. Accepting and
// rejecting are lawyer-only; completing and cancelling may be done by either
// participant.
func (b Booking) UpdateBookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]
	userID := api.UserID(r)

	var requestBody struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	booking, err := b.DB.FindOne(ctx, bson.M{"_id": bookingID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return
	}

	status := requestBody.Status
	if status == models.BookingStatusAccepted || status == models.BookingStatusRejected {
		if booking.LawyerID != userID {
			config.ErrorStatus("only the lawyer can accept or reject", http.StatusForbidden, w, errNotTheLawyer)
			return
		}
	} else if !booking.IsParticipant(userID) {
		config.ErrorStatus("unauthorized", http.StatusForbidden, w, errNotParticipant)
		return
	}

	if !validTransition(booking.Status, status) {
		writeValidationError(w, []models.FieldError{
			{Field: "status", Message: fmt.Sprintf("cannot transition from %q to %q", booking.Status, status)},
		})
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{"status": status, "updatedAt": now}
	switch status {
	case models.BookingStatusAccepted:
		set["acceptedAt"] = now
	case models.BookingStatusCompleted:
		set["completedAt"] = now
	}

	_, err = b.DB.UpdateOne(ctx, bson.M{"_id": bookingID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update booking status", http.StatusInternalServerError, w, err)
		return
	}

	if status == models.BookingStatusCompleted {
		// completed consultations feed the lawyer's reputation
		_, err = b.LDB.UpdateOne(ctx, bson.M{"userId": booking.LawyerID}, bson.M{
			"$inc": bson.M{"eloRating": eloCompletionBonus, "hearings": 1},
		})
		if err != nil {
			zap.S().With(err).Error("failed to update lawyer reputation")
		}
	}

	updated, err := b.DB.FindOne(ctx, bson.M{"_id": bookingID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return
	}

	// tell the other participant about the change
	recipient := updated.UserID
	if userID == updated.UserID {
		recipient = updated.LawyerID
	}
	NotifyUser(recipient, "booking_status", updated)

	bts, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// CreateCheckoutSessionHandler creates a stripe checkout session for an
// accepted booking's budget. Only the requesting user pays.
func (b Booking) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	booking, err := b.DB.FindOne(ctx, bson.M{"_id": bookingID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return
	}
	if booking.UserID != userID {
		config.ErrorStatus("only the requesting user can pay for a booking", http.StatusForbidden, w, errNotParticipant)
		return
	}
	if booking.Status != models.BookingStatusAccepted {
		writeValidationError(w, []models.FieldError{
			{Field: "status", Message: "booking must be accepted before payment"},
		})
		return
	}
	if booking.Budget <= 0 {
		writeValidationError(w, []models.FieldError{
			{Field: "budget", Message: "booking has no budget to charge"},
		})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Legal consultation: " + booking.CaseTitle),
					},
					UnitAmount: stripe.Int64(int64(booking.Budget * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(baseURL + "/api/v1/success"),
		CancelURL:         stripe.String(baseURL + "/api/v1/cancel"),
		ClientReferenceID: stripe.String(booking.ID),
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"url": s.URL})
}

var (
	errNotParticipant = errors.New("caller is not a participant of this booking")
	errNotTheLawyer   = errors.New("caller is not the booking's lawyer")
)
