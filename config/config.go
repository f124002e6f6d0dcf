package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL                    string
	DatabaseName           string
	BaseURL                string
	Port                   string
	GeminiAPIKey           string
	GeminiModel            string
	SendgridAPIKey         string
	StripeSecretKey        string
	JWTSecret              string
	CloudinaryUploadPreset string
	CloudinaryAPISecret    string
}

// New sets up all config related services
func New() *Config {

	// optional .env for local development
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                    os.Getenv("DB_URI"),
		DatabaseName:           os.Getenv("DB_NAME"),
		BaseURL:                os.Getenv("BASE_URL"),
		Port:                   os.Getenv("PORT"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            os.Getenv("GEMINI_MODEL"),
		SendgridAPIKey:         os.Getenv("SENDGRID_API_KEY"),
		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The err detail stays in the logs; the
// response body only carries the message.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s"}`, message)))
}
