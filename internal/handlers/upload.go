package handlers

import (
	"net/http"
	"strings"

	"github.com/autoagora/autoagora-backend/internal/services"
)

const (
	maxUploadBytes      = 10 << 20 // 10 MB per image
	listingImagesFolder = "autoagora/listings"
)

var uploadService *services.CloudinaryService

// InitUploader wires the Cloudinary service. Nil disables the upload endpoint.
func InitUploader(svc *services.CloudinaryService) {
	uploadService = svc
}

// UploadImage accepts a multipart image and returns the hosted URL to attach
// to a listing's image_urls.
func UploadImage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	if uploadService == nil {
		writeMessage(w, http.StatusServiceUnavailable, false, "Image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "File too large or malformed upload (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeMessage(w, http.StatusBadRequest, false, "Only image uploads are allowed")
		return
	}

	url, err := uploadService.UploadFile(r.Context(), file, listingImagesFolder)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
	})
}
