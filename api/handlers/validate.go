package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lexconnect/lexconnect-api/models"
)

// writeValidationError writes the structured 400 body for field-level
// validation failures.
func writeValidationError(w http.ResponseWriter, errs []models.FieldError) {
	zap.S().Warnw("validation error", "errors", errs)
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(models.ValidationErrorResponse{
		Message: "Validation error",
		Errors:  errs,
	})
}
