package handler

import (
	"time"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Code    int                 `json:"code"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type signUpRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"     validate:"required"`
	Role     string `json:"role"`
}

type signUpResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	AccessToken          string           `json:"access_token"`
	RefreshToken         string           `json:"refresh_token"`
	EmailAddress         string           `json:"email_address"`
	Role                 domain.Role      `json:"role"`
	IsVerified           bool             `json:"is_verified"`
	Profile              *profileResponse `json:"profile"`
	AccessTokenValidTill int64            `json:"access_token_valid_till"`
}

type otpCreateRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email" validate:"omitempty,email"`
}

type otpVerifyRequest struct {
	UserID string `json:"user_id" validate:"required"`
	OTP    string `json:"otp"     validate:"required"`
}

type otpVerifyResponse struct {
	Message      string           `json:"message"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	EmailAddress string           `json:"email_address"`
	Role         domain.Role      `json:"role"`
	IsVerified   bool             `json:"is_verified"`
	Profile      *profileResponse `json:"profile"`
}

type passwordResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetOTPResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type resetOTPVerifyResponse struct {
	Message   string `json:"message"`
	SecretKey string `json:"secret_key"`
	UserID    string `json:"user_id"`
}

type passwordResetConfirmRequest struct {
	UserID      string `json:"user_id"      validate:"required"`
	SecretKey   string `json:"secret_key"   validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// --- Profile ---

type profileResponse struct {
	Name           string    `json:"name"`
	PhoneNumber    string    `json:"phone_number"`
	Address        string    `json:"address"`
	ProfilePicture string    `json:"profile_picture"`
	JoinedDate     time.Time `json:"joined_date"`
}

type profileUpdateRequest struct {
	Name           *string `json:"name"`
	PhoneNumber    *string `json:"phone_number"`
	Address        *string `json:"address"`
	ProfilePicture *string `json:"profile_picture"`
}

type accountResponse struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	Role        domain.Role      `json:"role"`
	IsVerified  bool             `json:"is_verified"`
	UserProfile *profileResponse `json:"user_profile"`
}

// --- Members ---

type addMemberRequest struct {
	Farm           string `json:"farm"`
	Email          string `json:"email"        validate:"required,email"`
	Password       string `json:"password"     validate:"required"`
	Name           string `json:"name"`
	PhoneNumber    string `json:"phone_number"`
	ProfilePicture string `json:"profile_picture"`
}

type memberProfileResponse struct {
	Name           string    `json:"name"`
	PhoneNumber    string    `json:"phone_number"`
	ProfilePicture string    `json:"profile_picture"`
	JoinedDate     time.Time `json:"joined_date"`
}

type memberResponse struct {
	MemberID        string                 `json:"member_id"`
	FarmID          string                 `json:"farm_id"`
	FarmEmail       string                 `json:"farm_email"`
	FarmName        *string                `json:"farm_name"`
	FarmUserID      string                 `json:"farm_user_id"`
	FarmUserEmail   string                 `json:"farm_user_email"`
	FarmUserProfile *memberProfileResponse `json:"farm_user_profile"`
	CreatedAt       time.Time              `json:"created_at"`
	IsActive        bool                   `json:"is_active"`
}

type memberEnvelope struct {
	Message string          `json:"message"`
	Data    *memberResponse `json:"data"`
}

type memberListEnvelope struct {
	Message string            `json:"message"`
	Data    []*memberResponse `json:"data"`
}

// --- Consultants ---

type farmSearchResponse struct {
	ID      string                 `json:"id"`
	Email   string                 `json:"email"`
	Profile *memberProfileResponse `json:"profile"`
}

type farmSearchEnvelope struct {
	Message string                `json:"message"`
	Data    []*farmSearchResponse `json:"data"`
}

type consultantRequestBody struct {
	Farm       string `json:"farm" validate:"required"`
	Consultant string `json:"consultant"`
}

type manageRequestBody struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

type consultantRequestResponse struct {
	ID                       string    `json:"id"`
	Farm                     string    `json:"farm"`
	FarmEmail                string    `json:"farm_email"`
	FarmName                 *string   `json:"farm_name"`
	FarmProfilePicture       *string   `json:"farm_profile_picture"`
	Consultant               string    `json:"consultant"`
	ConsultantEmail          string    `json:"consultant_email"`
	ConsultantName           *string   `json:"consultant_name"`
	ConsultantProfilePicture *string   `json:"consultant_profile_picture"`
	Status                   string    `json:"status"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

type consultantRequestEnvelope struct {
	Message string                     `json:"message"`
	Data    *consultantRequestResponse `json:"data"`
}

type consultantRequestListEnvelope struct {
	Message string                       `json:"message"`
	Data    []*consultantRequestResponse `json:"data"`
}
