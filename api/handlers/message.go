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

// Message exported for testing purposes
type Message struct {
	DB  databases.MessageDatabase
	BDB databases.BookingDatabase
}

var errMessagingClosed = errors.New("booking is not accepted or completed")

// loadBookingForMessaging fetches the booking and checks the caller may
// exchange messages on it.
func (m Message) loadBookingForMessaging(w http.ResponseWriter, r *http.Request, bookingID, userID string) (models.Booking, bool) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	booking, err := m.BDB.FindOne(ctx, bson.M{"_id": bookingID})
	if err != nil {
		config.ErrorStatus("failed to get booking by ID", http.StatusNotFound, w, err)
		return models.Booking{}, false
	}
	if !booking.IsParticipant(userID) {
		config.ErrorStatus("unauthorized", http.StatusForbidden, w, errNotParticipant)
		return models.Booking{}, false
	}
	return *booking, true
}

// CreateMessageHandler appends a message to a booking's thread and relays it
// to the booking's room. Messaging only opens once the lawyer has accepted.
func (m Message) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody struct {
		BookingID string `json:"bookingId"`
		Content   string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	var errs []models.FieldError
	if requestBody.BookingID == "" {
		errs = append(errs, models.FieldError{Field: "bookingId", Message: "bookingId is required"})
	}
	if requestBody.Content == "" {
		errs = append(errs, models.FieldError{Field: "content", Message: "content is required"})
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}
	bookingID := requestBody.BookingID

	booking, ok := m.loadBookingForMessaging(w, r, bookingID, userID)
	if !ok {
		return
	}
	if booking.Status != models.BookingStatusAccepted && booking.Status != models.BookingStatusCompleted {
		config.ErrorStatus("messaging is not open for this booking", http.StatusForbidden, w, errMessagingClosed)
		return
	}

	message := models.Message{
		ID:        primitive.NewObjectID().Hex(),
		BookingID: bookingID,
		SenderID:  userID,
		Content:   requestBody.Content,
		Read:      false,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	_, err := m.DB.InsertOne(ctx, message)
	if err != nil {
		config.ErrorStatus("failed to create message", http.StatusInternalServerError, w, err)
		return
	}

	EmitNewMessage(bookingID, message)

	bts, err := json.Marshal(message)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(bts)
}

// BookingMessagesHandler returns a booking's thread oldest-first and marks
// the other participant's messages as read.
func (m Message) BookingMessagesHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]
	userID := api.UserID(r)

	if _, ok := m.loadBookingForMessaging(w, r, bookingID, userID); !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	messages, err := m.DB.Find(ctx, bson.M{"bookingId": bookingID}, sort)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusNotFound, w, err)
		return
	}

	// reading the thread marks everything the other side sent as read
	_, err = m.DB.UpdateMany(ctx,
		bson.M{"bookingId": bookingID, "senderId": bson.M{"$ne": userID}},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		zap.S().With(err).Error("failed to mark messages as read")
	}

	bts, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// UnreadCountHandler returns how many messages from the other participant the
// caller has not yet read on a booking.
func (m Message) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]
	userID := api.UserID(r)

	if _, ok := m.loadBookingForMessaging(w, r, bookingID, userID); !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	count, err := m.DB.CountDocuments(ctx, bson.M{
		"bookingId": bookingID,
		"read":      false,
		"senderId":  bson.M{"$ne": userID},
	})
	if err != nil {
		config.ErrorStatus("failed to count unread messages", http.StatusInternalServerError, w, err)
		return
	}

	bts, err := json.Marshal(models.UnreadCountResponse{Count: count})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}
