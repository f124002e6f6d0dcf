package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
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

// Vault exported for testing purposes
type Vault struct {
	DB databases.VaultDocumentDatabase
}

var errNotDocumentOwner = errors.New("caller does not own this document")

// GenerateSignature generates a signature for Cloudinary uploads
func (v Vault) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	// Create the signature
	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type createVaultDocumentRequest struct {
	Name         string `json:"name"`
	ResourceType string `json:"resourceType"`
	PublicID     string `json:"publicId"`
	URL          string `json:"url"`
	Bytes        int64  `json:"bytes"`
}

func (req *createVaultDocumentRequest) validate() []models.FieldError {
	var errs []models.FieldError
	if req.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "name is required"})
	}
	if req.PublicID == "" {
		errs = append(errs, models.FieldError{Field: "publicId", Message: "publicId is required"})
	}
	if req.URL == "" {
		errs = append(errs, models.FieldError{Field: "url", Message: "url is required"})
	}
	return errs
}

// CreateVaultDocumentHandler records an uploaded file's metadata against the
// session user's vault.
func (v Vault) CreateVaultDocumentHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	var requestBody createVaultDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if errs := requestBody.validate(); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	resourceType := requestBody.ResourceType
	if resourceType == "" {
		resourceType = "raw"
	}

	document := models.VaultDocument{
		ID:           primitive.NewObjectID().Hex(),
		UserID:       userID,
		Name:         requestBody.Name,
		ResourceType: resourceType,
		PublicID:     requestBody.PublicID,
		URL:          requestBody.URL,
		Bytes:        requestBody.Bytes,
		CreatedAt:    primitive.NewDateTimeFromTime(time.Now()),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	_, err := v.DB.InsertOne(ctx, document)
	if err != nil {
		config.ErrorStatus("failed to create vault document", http.StatusInternalServerError, w, err)
		return
	}

	bts, err := json.Marshal(document)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(bts)
}

// VaultDocumentsHandler lists the session user's documents newest-first
func (v Vault) VaultDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	userID := api.UserID(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	documents, err := v.DB.Find(ctx, bson.M{"userId": userID}, sort)
	if err != nil {
		config.ErrorStatus("failed to get vault documents", http.StatusNotFound, w, err)
		return
	}

	bts, err := json.Marshal(documents)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(bts)
}

// DeleteVaultDocumentHandler removes a document the session user owns, both
// the cloudinary asset and the metadata row.
func (v Vault) DeleteVaultDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["document_id"]
	userID := api.UserID(r)

	if _, err := primitive.ObjectIDFromHex(documentID); err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	document, err := v.DB.FindOne(ctx, bson.M{"_id": documentID})
	if err != nil {
		config.ErrorStatus("failed to get vault document by ID", http.StatusNotFound, w, err)
		return
	}
	if document.UserID != userID {
		config.ErrorStatus("unauthorized", http.StatusForbidden, w, errNotDocumentOwner)
		return
	}

	if err := destroyCloudinaryAsset(r, *document); err != nil {
		// the metadata row still goes away; the orphaned asset is logged
		zap.S().With(err).Errorw("failed to destroy cloudinary asset", "publicId", document.PublicID)
	}

	if err := v.DB.DeleteOne(ctx, bson.M{"_id": documentID}); err != nil {
		config.ErrorStatus("failed to delete vault document", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func destroyCloudinaryAsset(r *http.Request, document models.VaultDocument) error {
	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		return err
	}
	_, err = cld.Upload.Destroy(r.Context(), uploader.DestroyParams{
		PublicID:     document.PublicID,
		ResourceType: document.ResourceType,
	})
	return err
}
