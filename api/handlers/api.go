package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/api/scheduler"
	"github.com/lexconnect/lexconnect-api/config"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/gemini"
	"github.com/lexconnect/lexconnect-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{
		DB:  databases.NewUserDatabase(a.dbHelper),
		SDB: databases.NewSessionDatabase(a.dbHelper),
	}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	u := User{DB: databases.NewUserDatabase(a.dbHelper), LDB: databases.NewLawyerProfileDatabase(a.dbHelper)}
	lp := LawyerProfile{DB: databases.NewLawyerProfileDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	b := Booking{
		DB:  databases.NewBookingDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
		LDB: databases.NewLawyerProfileDatabase(a.dbHelper),
	}
	msg := Message{DB: databases.NewMessageDatabase(a.dbHelper), BDB: databases.NewBookingDatabase(a.dbHelper)}
	chat := AIChat{Client: gemini.New(a.Config.GeminiAPIKey, a.Config.GeminiModel)}
	vault := Vault{DB: databases.NewVaultDocumentDatabase(a.dbHelper)}
	admin := Admin{ADB: databases.NewAdminDatabase(a.dbHelper), LDB: databases.NewLawyerProfileDatabase(a.dbHelper)}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// real-time surfaces
	socketServer := InitializeSocketIO()
	r.Handle("/socket.io/", socketServer)
	r.HandleFunc("/ws/notifications", HandleNotificationsWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/user", api.Middleware(http.HandlerFunc(u.CurrentUserHandler))).Methods("GET")
	apiCreate.Handle("/auth/user/role", api.Middleware(http.HandlerFunc(u.UpdateUserRoleHandler))).Methods("POST")

	apiCreate.Handle("/lawyer-profiles/me", api.Middleware(http.HandlerFunc(lp.MyLawyerProfileHandler))).Methods("GET")
	apiCreate.Handle("/lawyer-profiles/me", api.Middleware(http.HandlerFunc(lp.UpdateMyLawyerProfileHandler))).Methods("PATCH")
	apiCreate.Handle("/lawyer-profiles/me/status", api.Middleware(http.HandlerFunc(lp.UpdateLawyerStatusHandler))).Methods("PATCH")
	apiCreate.Handle("/lawyer-profiles", api.Middleware(http.HandlerFunc(lp.CreateLawyerProfileHandler))).Methods("POST")
	apiCreate.Handle("/lawyer-profiles", http.HandlerFunc(lp.LawyerProfilesHandler)).Methods("GET")
	apiCreate.Handle("/lawyer-profiles/{profile_id}", http.HandlerFunc(lp.LawyerProfileByIDHandler)).Methods("GET")

	apiCreate.Handle("/bookings", api.Middleware(http.HandlerFunc(b.CreateBookingHandler))).Methods("POST")
	apiCreate.Handle("/bookings/user", api.Middleware(http.HandlerFunc(b.BookingsByUserHandler))).Methods("GET")
	apiCreate.Handle("/bookings/lawyer", api.Middleware(http.HandlerFunc(b.BookingsByLawyerHandler))).Methods("GET")
	apiCreate.Handle("/bookings/{booking_id}", api.Middleware(http.HandlerFunc(b.BookingByIDHandler))).Methods("GET")
	apiCreate.Handle("/bookings/{booking_id}/status", api.Middleware(http.HandlerFunc(b.UpdateBookingStatusHandler))).Methods("PATCH")
	apiCreate.Handle("/bookings/{booking_id}/checkout-session", api.Middleware(http.HandlerFunc(b.CreateCheckoutSessionHandler))).Methods("POST")

	apiCreate.Handle("/messages", api.Middleware(http.HandlerFunc(msg.CreateMessageHandler))).Methods("POST")
	apiCreate.Handle("/messages/{booking_id}", api.Middleware(http.HandlerFunc(msg.BookingMessagesHandler))).Methods("GET")
	apiCreate.Handle("/messages/{booking_id}/unread", api.Middleware(http.HandlerFunc(msg.UnreadCountHandler))).Methods("GET")

	apiCreate.Handle("/ai-chat", api.Middleware(http.HandlerFunc(chat.ChatHandler))).Methods("POST")

	apiCreate.Handle("/vault/signature", api.Middleware(http.HandlerFunc(vault.GenerateSignature))).Methods("POST")
	apiCreate.Handle("/vault/documents", api.Middleware(http.HandlerFunc(vault.CreateVaultDocumentHandler))).Methods("POST")
	apiCreate.Handle("/vault/documents", api.Middleware(http.HandlerFunc(vault.VaultDocumentsHandler))).Methods("GET")
	apiCreate.Handle("/vault/documents/{document_id}", api.Middleware(http.HandlerFunc(vault.DeleteVaultDocumentHandler))).Methods("DELETE")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/lawyer-profiles/{profile_id}/verify", AdminMiddleware(http.HandlerFunc(admin.VerifyLawyerProfileHandler))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("lexconnect-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// background jobs
	a.Scheduler = scheduler.NewScheduler(
		databases.NewLawyerProfileDatabase(a.dbHelper),
		databases.NewSessionDatabase(a.dbHelper),
		databases.NewBookingDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
