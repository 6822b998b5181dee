package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

const requiredMessage = "This field is required"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code    int                 `json:"code"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and per-field details.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"code", "error", "details"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Code)
			return
		}
		_ = c.JSON(resp.Code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) errorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		return newErrorResponse(he.Code, "", map[string][]string{"error": {msg}})
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return newErrorResponse(http.StatusBadRequest, "", verr.Fields)
	}

	if resp, ok := knownError(err); ok {
		return resp
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return newErrorResponse(http.StatusInternalServerError, "internal server error", nil)
}

// knownError maps domain sentinels to deterministic codes and field details.
func knownError(err error) (errorResponse, bool) {
	field := func(code int, name, msg string) (errorResponse, bool) {
		return newErrorResponse(code, "", map[string][]string{name: {msg}}), true
	}

	switch {
	// 400
	case errors.Is(err, domain.ErrEmailTaken):
		return field(http.StatusBadRequest, "email", "A user with this email already exists")
	case errors.Is(err, domain.ErrMembershipExists):
		return field(http.StatusBadRequest, "non_field_errors", "This user is already a member of the farm")
	case errors.Is(err, domain.ErrAlreadyLinked):
		return field(http.StatusBadRequest, "non_field_errors", "This consultant is already associated with the farm")
	case errors.Is(err, domain.ErrPendingRequest):
		return field(http.StatusBadRequest, "non_field_errors", "A pending request already exists for this farm and consultant")
	case errors.Is(err, domain.ErrSelfRequest):
		return field(http.StatusBadRequest, "non_field_errors", "Farm and consultant must be different accounts")
	case errors.Is(err, domain.ErrRoleMismatch):
		return field(http.StatusBadRequest, "non_field_errors", "Selected account has the wrong role")
	case errors.Is(err, domain.ErrInvalidOTP):
		return field(http.StatusBadRequest, "otp", "The provided OTP is invalid")
	case errors.Is(err, domain.ErrOTPExpired):
		return field(http.StatusBadRequest, "otp", "The OTP has expired")
	case errors.Is(err, domain.ErrAlreadyVerified):
		return field(http.StatusBadRequest, "email", "This account is already verified")
	case errors.Is(err, domain.ErrNotVerified):
		return field(http.StatusBadRequest, "email", "Please verify your email before resetting your password")
	case errors.Is(err, domain.ErrInvalidSecret):
		return field(http.StatusBadRequest, "secret_key", "The provided secret key is invalid")
	case errors.Is(err, domain.ErrIncorrectPassword):
		return field(http.StatusBadRequest, "current_password", "The current password is incorrect")
	case errors.Is(err, domain.ErrInvalidToken):
		return field(http.StatusBadRequest, "refresh_token", "Token is invalid or expired")

	// 401 / 403
	case errors.Is(err, domain.ErrInvalidCredentials):
		return field(http.StatusUnauthorized, "credentials", "Invalid email or password")
	case errors.Is(err, domain.ErrAccountInactive):
		return field(http.StatusForbidden, "credentials", "Account not verified. Please verify your email with the OTP sent")
	case errors.Is(err, domain.ErrPrivilegedRole):
		return newErrorResponse(http.StatusForbidden, "Admin role cannot be assigned during registration",
			map[string][]string{"role": {"Admin role is restricted"}}), true
	case errors.Is(err, domain.ErrForbidden):
		return field(http.StatusForbidden, "error", "You do not have permission to perform this action")

	// 404
	case errors.Is(err, domain.ErrAccountNotFound):
		return field(http.StatusNotFound, "user", "No user exists with the given id or email")
	case errors.Is(err, domain.ErrOTPNotFound):
		return field(http.StatusNotFound, "email", "No OTP found for this email")
	case errors.Is(err, domain.ErrFarmNotFound):
		return field(http.StatusNotFound, "error", "Farm not found or not a farm role")
	case errors.Is(err, domain.ErrMembershipNotFound):
		return field(http.StatusNotFound, "error", "Membership not found")
	case errors.Is(err, domain.ErrRequestNotFound):
		return field(http.StatusNotFound, "error", "Consultant request not found or already processed")
	case errors.Is(err, domain.ErrProfileNotFound):
		return field(http.StatusNotFound, "error", "Profile not found")

	// 429
	case errors.Is(err, domain.ErrOTPLocked):
		return field(http.StatusTooManyRequests, "otp", "Too many invalid attempts. Request a new OTP")

	// 500
	case errors.Is(err, domain.ErrMailDelivery):
		return field(http.StatusInternalServerError, "error", "Failed to send OTP email")
	}
	return errorResponse{}, false
}

// newErrorResponse builds the envelope. An empty msg is derived from details:
// missing fields become "<Field> is required" (or "A, B are required"),
// otherwise the first message wins.
func newErrorResponse(code int, msg string, details map[string][]string) errorResponse {
	if details == nil {
		details = map[string][]string{}
	}
	if msg == "" {
		msg = summarize(details)
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return errorResponse{Code: code, Error: msg, Details: details}
}

func summarize(details map[string][]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var missing []string
	for _, k := range keys {
		for _, m := range details[k] {
			if strings.Contains(m, requiredMessage) {
				missing = append(missing, titleKey(k))
				break
			}
		}
	}
	switch len(missing) {
	case 0:
	case 1:
		return missing[0] + " is required"
	default:
		return strings.Join(missing, ", ") + " are required"
	}

	for _, k := range keys {
		if len(details[k]) > 0 {
			return details[k][0]
		}
	}
	return ""
}

// titleKey upper-cases the first letter of every underscore-separated word.
func titleKey(k string) string {
	words := strings.Split(k, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, "_")
}
