package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	HandleAPIError(c, err)
	return rec.Code
}

func TestHandleAPIErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", apperrors.ErrInvalidTransition, http.StatusConflict},
		{"guard no proposals", apperrors.ErrNoProposals, http.StatusConflict},
		{"guard student not in set", apperrors.ErrStudentNotInSet, http.StatusConflict},
		{"price not set", apperrors.ErrPriceNotSet, http.StatusConflict},
		{"payment not succeeded", apperrors.ErrPaymentNotSucceeded, http.StatusPaymentRequired},
		{"gateway unavailable", apperrors.ErrGatewayUnavailable, http.StatusServiceUnavailable},
		{"project not found", apperrors.ErrProjectNotFound, http.StatusNotFound},
		{"duplicate review", apperrors.ErrReviewAlreadyExists, http.StatusConflict},
		{"duplicate email", apperrors.ErrEmailAlreadyExists, http.StatusConflict},
		{"permission denied", apperrors.ErrPermissionDenied, http.StatusForbidden},
		{"not group member", apperrors.ErrNotGroupMember, http.StatusForbidden},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"validation failed", apperrors.ErrValidationFailed, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusFor(t, tc.err); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHandleAPIErrorUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("error creating review: %w", apperrors.ErrReviewAlreadyExists)
	if got := statusFor(t, wrapped); got != http.StatusConflict {
		t.Errorf("status = %d, want %d", got, http.StatusConflict)
	}
}
