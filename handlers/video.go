package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/storage"
	"github.com/voxlane/voxlane/services/transcribe"
	"go.uber.org/zap"
)

type VideoHandler struct {
	storage    *storage.Service
	transcribe *transcribe.Service
	logger     *logging.Service
}

func NewVideoHandler(storageSvc *storage.Service, transcribeSvc *transcribe.Service, logger *logging.Service) *VideoHandler {
	return &VideoHandler{
		storage:    storageSvc,
		transcribe: transcribeSvc,
		logger:     logger,
	}
}

func (h *VideoHandler) Presign(c echo.Context) error {
	fileName := c.QueryParam("fileName")
	fileType := c.QueryParam("fileType")
	fileSizeRaw := c.QueryParam("fileSize")

	if fileName == "" || fileType == "" || fileSizeRaw == "" {
		return respondError(c, http.StatusBadRequest, "fileName, fileSize and fileType are required")
	}

	fileSize, err := strconv.ParseInt(fileSizeRaw, 10, 64)
	if err != nil || fileSize <= 0 {
		return respondError(c, http.StatusBadRequest, "Invalid file size")
	}

	upload, err := h.storage.PresignUpload(c.Request().Context(), fileName, fileSize, fileType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidFileType):
			return respondError(c, http.StatusBadRequest, "Invalid file format")
		case errors.Is(err, storage.ErrFileTooLarge):
			return respondError(c, http.StatusBadRequest, "Invalid file size. Upload files smaller than 50 MB")
		default:
			if h.logger != nil {
				h.logger.Error("presign failed", zap.Error(err), zap.String("file", fileName))
			}
			return respondError(c, http.StatusInternalServerError, "Error uploading file")
		}
	}

	return respondSuccess(c, http.StatusOK, echo.Map{
		"url":      upload.URL,
		"fileName": upload.Key,
	})
}

func (h *VideoHandler) Transcription(c echo.Context) error {
	filename := c.QueryParam("filename")
	if filename == "" {
		return respondError(c, http.StatusBadRequest, "Filename is required")
	}

	result, err := h.transcribe.Status(c.Request().Context(), filename)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("transcription status failed",
				zap.Error(err),
				zap.String("file", filename))
		}
		return respondError(c, http.StatusInternalServerError, "Internal server error")
	}

	return respondSuccess(c, http.StatusOK, result)
}
