package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/services/logging"
	"github.com/voxlane/voxlane/services/waitlist"
	"go.uber.org/zap"
)

type WaitlistHandler struct {
	waitlist *waitlist.Service
	logger   *logging.Service
}

func NewWaitlistHandler(waitlistSvc *waitlist.Service, logger *logging.Service) *WaitlistHandler {
	return &WaitlistHandler{
		waitlist: waitlistSvc,
		logger:   logger,
	}
}

type waitlistRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *WaitlistHandler) Add(c echo.Context) error {
	var req waitlistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, http.StatusBadRequest, "Email is required")
	}

	if _, err := h.waitlist.Add(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, waitlist.ErrAlreadyOnWaitlist) {
			return respondError(c, http.StatusConflict, "You're already in the waitlist")
		}
		if h.logger != nil {
			h.logger.Error("waitlist add failed", zap.Error(err))
		}
		return respondError(c, http.StatusInternalServerError, "Failed to add to waitlist")
	}

	return respondMessage(c, http.StatusCreated, "You've been added to the waitlist")
}
