package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/models"
)

// presenceTimeout is how long a lawyer profile may go without a heartbeat
// before the sweep marks it offline.
const presenceTimeout = 30 * time.Minute

// reminderAge is how old a pending booking must be before the lawyer gets a
// reminder email.
const reminderAge = 24 * time.Hour

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron *cron.Cron
	LDB  databases.LawyerProfileDatabase
	SDB  databases.SessionDatabase
	BDB  databases.BookingDatabase
	UDB  databases.UserDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	lDB databases.LawyerProfileDatabase,
	sDB databases.SessionDatabase,
	bDB databases.BookingDatabase,
	uDB databases.UserDatabase,
) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		LDB:  lDB,
		SDB:  sDB,
		BDB:  bDB,
		UDB:  uDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep stale lawyer presence every 10 minutes
	_, err := s.cron.AddFunc("*/10 * * * *", s.sweepStalePresence)
	if err != nil {
		zap.S().Errorw("failed to register presence sweep job", "error", err)
	}

	// Purge expired sessions hourly
	_, err = s.cron.AddFunc("0 * * * *", s.cleanupExpiredSessions)
	if err != nil {
		zap.S().Errorw("failed to register session cleanup job", "error", err)
	}

	// Remind lawyers about stale pending bookings daily at 9 AM UTC
	_, err = s.cron.AddFunc("0 9 * * *", s.remindPendingBookings)
	if err != nil {
		zap.S().Errorw("failed to register pending booking reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("background scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("background scheduler stopped")
}

// sweepStalePresence flips lawyers who stopped heartbeating back to offline
// so the public directory doesn't show ghosts.
func (s *Scheduler) sweepStalePresence() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-presenceTimeout))
	result, err := s.LDB.UpdateMany(ctx,
		bson.M{"isOnline": true, "updatedAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isOnline": false, "status": models.LawyerStatusOffline}},
	)
	if err != nil {
		zap.S().Errorw("presence sweep failed", "error", err)
		return
	}
	if result.ModifiedCount > 0 {
		zap.S().Infow("swept stale lawyer presence", "count", result.ModifiedCount)
	}
}

func (s *Scheduler) cleanupExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	deleted, err := s.SDB.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		zap.S().Errorw("session cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("purged expired sessions", "count", deleted)
	}
}

// remindPendingBookings emails lawyers that have consultation requests
// sitting unanswered for more than a day.
func (s *Scheduler) remindPendingBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(time.Now().Add(-reminderAge))
	bookings, err := s.BDB.Find(ctx, bson.M{
		"status":    models.BookingStatusPending,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to find stale pending bookings", "error", err)
		return
	}

	// one email per lawyer, not per booking
	pendingByLawyer := make(map[string]int)
	for _, booking := range bookings {
		pendingByLawyer[booking.LawyerID]++
	}

	for lawyerID, count := range pendingByLawyer {
		lawyer, err := s.UDB.FindOne(ctx, bson.M{"_id": lawyerID})
		if err != nil || lawyer.Email == "" {
			continue
		}
		if err := sendPendingReminderEmail(lawyer.Email, lawyer.FirstName, count); err != nil {
			zap.S().Errorw("failed to send pending booking reminder", "lawyerId", lawyerID, "error", err)
		}
	}

	if len(pendingByLawyer) > 0 {
		zap.S().Infow("sent pending booking reminders", "lawyers", len(pendingByLawyer))
	}
}

func sendPendingReminderEmail(toEmail, toName string, pendingCount int) error {
	from := mail.NewEmail("LexConnect", "no-reply@lexconnect.app")
	to := mail.NewEmail(toName, toEmail)
	subject := "You have consultation requests waiting - LexConnect"
	plainText := "You have pending consultation requests waiting for your response. Log in to accept or decline them."
	htmlContent := "<p>You have <strong>" + strconv.Itoa(pendingCount) + "</strong> pending consultation request(s) waiting for your response.</p><p>Log in to accept or decline them.</p>"

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
