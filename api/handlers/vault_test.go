package handlers_test

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lexconnect/lexconnect-api/api"
	"github.com/lexconnect/lexconnect-api/api/handlers"
	"github.com/lexconnect/lexconnect-api/databases"
	"github.com/lexconnect/lexconnect-api/databases/mocks"
	"github.com/lexconnect/lexconnect-api/models"
)

func TestVault_GenerateSignature(t *testing.T) {
	os.Setenv("CLOUDINARY_UPLOAD_PRESET", "vault-preset")
	os.Setenv("CLOUDINARY_API_SECRET", "test-secret")
	defer os.Unsetenv("CLOUDINARY_UPLOAD_PRESET")
	defer os.Unsetenv("CLOUDINARY_API_SECRET")

	req, err := http.NewRequest("POST", "/api/v1/vault/signature", nil)
	if err != nil {
		t.Fatal(err)
	}

	v := handlers.Vault{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.GenerateSignature).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["timestamp"])

	h := hmac.New(sha1.New, []byte("test-secret"))
	h.Write([]byte("timestamp=" + resp["timestamp"] + "&upload_preset=vault-preset"))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), resp["signature"])
}

func TestVault_CreateDocumentHandlerValidation(t *testing.T) {
	body := strings.NewReader(`{"name":"","publicId":"","url":""}`)
	req, err := http.NewRequest("POST", "/api/v1/vault/documents", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, testClientID)

	v := handlers.Vault{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.CreateVaultDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "name is required")
	assert.Contains(t, rr.Body.String(), "publicId is required")
	assert.Contains(t, rr.Body.String(), "url is required")
}

func TestVault_CreateDocumentHandler(t *testing.T) {
	body := strings.NewReader(`{"name":"contract.pdf","publicId":"vault/abc123","url":"https://res.cloudinary.com/x/raw/upload/vault/abc123","bytes":2048}`)
	req, err := http.NewRequest("POST", "/api/v1/vault/documents", body)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, testClientID)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil)
	db.On("Collection", "vaultDocuments").Return(conn)

	v := handlers.Vault{DB: databases.NewVaultDocumentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.CreateVaultDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"contract.pdf"`)
	assert.Contains(t, rr.Body.String(), `"resourceType":"raw"`)
	assert.Contains(t, rr.Body.String(), `"userId":"`+testClientID+`"`)
}

func TestVault_DocumentsHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/vault/documents", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithUserID(req, testClientID)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.VaultDocument)
		*arg = []models.VaultDocument{
			{ID: "d1", UserID: testClientID, Name: "contract.pdf"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "vaultDocuments").Return(conn)

	v := handlers.Vault{DB: databases.NewVaultDocumentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.VaultDocumentsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "contract.pdf")
}

func TestVault_DeleteDocumentHandlerNotOwner(t *testing.T) {
	req, err := http.NewRequest("DELETE", "/api/v1/vault/documents/"+testBookID, nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"document_id": testBookID})
	req = api.WithUserID(req, testOtherID)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.VaultDocument)
		(*arg).ID = testBookID
		(*arg).UserID = testClientID
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "vaultDocuments").Return(conn)

	v := handlers.Vault{DB: databases.NewVaultDocumentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.DeleteVaultDocumentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	conn.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestVault_DeleteDocumentHandler(t *testing.T) {
	req, err := http.NewRequest("DELETE", "/api/v1/vault/documents/"+testBookID, nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"document_id": testBookID})
	req = api.WithUserID(req, testClientID)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.VaultDocument)
		(*arg).ID = testBookID
		(*arg).UserID = testClientID
		(*arg).PublicID = "vault/contract"
		(*arg).ResourceType = "raw"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	db.On("Collection", "vaultDocuments").Return(conn)

	v := handlers.Vault{DB: databases.NewVaultDocumentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.DeleteVaultDocumentHandler).ServeHTTP(rr, req)

	// cloudinary is unreachable here; the row still goes away
	assert.Equal(t, http.StatusNoContent, rr.Code)
	conn.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}
