package dto

import (
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/golang-jwt/jwt/v5"
)

var (
	Validate *validator.Validate
	Trans    ut.Translator
)

func InitValidator() {
	en := en.New()
	uni := ut.New(en, en)
	Trans, _ = uni.GetTranslator("en")

	Validate = validator.New()

	_ = enTranslations.RegisterDefaultTranslations(Validate, Trans)

	_ = Validate.RegisterValidation("trim", trimValue)   // SIDE EFFECT: trims the value
	_ = Validate.RegisterValidation("lower", lowerValue) // SIDE EFFECT: lower-cases the value
}

// Space Trimming, SIDE EFFECT!
func trimValue(fl validator.FieldLevel) bool {
	value := fl.Field().String()

	trimed := strings.TrimSpace(value)
	fl.Field().SetString(trimed)

	return true
}

// Lower-casing, SIDE EFFECT! Emails are compared lower-case everywhere.
func lowerValue(fl validator.FieldLevel) bool {
	fl.Field().SetString(strings.ToLower(fl.Field().String()))
	return true
}

// IsValidEmail runs the same email rule the request DTOs use.
func IsValidEmail(email string) bool {
	if Validate == nil {
		InitValidator()
	}
	return Validate.Var(email, "required,email,max=254") == nil
}

// Friends

type CreateFriendRequest struct {
	FriendEmail string `json:"friendEmail" validate:"required,trim,lower,email,max=254"`
}

type ConnectionResponse struct {
	ID           uint    `json:"id"`
	FriendEmail  string  `json:"friendEmail"`
	FriendUserID *string `json:"friendUserId"`
	FriendName   string  `json:"friendName"`
	FriendColor  string  `json:"friendColor"`
	Status       string  `json:"status"`
	CreatedAt    int64   `json:"createdAt"`
}

type FriendRequestResponse struct {
	Connection ConnectionResponse `json:"connection"`
	FriendName string             `json:"friendName"`
	Message    string             `json:"message"`
}

type FriendsResponse struct {
	Friends []ConnectionResponse `json:"friends"`
}

type SyncPendingResponse struct {
	Promoted int `json:"promoted"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Accounts and auth

type ExchangeCodeRequest struct {
	Code string `json:"code" validate:"required,trim,max=100"`
}

type AccountResponse struct {
	Provider      string  `json:"provider"`
	UserID        string  `json:"userId"`
	Email         *string `json:"email"`
	Name          string  `json:"name"`
	Avatar        *string `json:"avatar"`
	PrimaryUserID *string `json:"primaryUserId,omitempty"`
	CreatedAt     int64   `json:"createdAt"`
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  AccountResponse `json:"user"`
}

type GoogleLoginResponse struct {
	URL string `json:"url"`
}

type LinkICloudRequest struct {
	Email       string `json:"email" validate:"required,trim,lower,email,max=254"`
	AppPassword string `json:"appPassword" validate:"required,trim,min=8,max=64"`
}

type LinkOutlookRequest struct {
	GrantID string `json:"grantId" validate:"required,trim,max=200"`
	Email   string `json:"email" validate:"required,trim,lower,email,max=254"`
}

// Calendar

type EventResponse struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	AccountEmail string    `json:"accountEmail"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AllDay       bool      `json:"allDay"`
}

type AccountFetchError struct {
	Provider     string `json:"provider"`
	AccountEmail string `json:"accountEmail"`
	Error        string `json:"error"`
}

type EventsResponse struct {
	Events []EventResponse     `json:"events"`
	Errors []AccountFetchError `json:"errors"`
}

type CreateEventRequest struct {
	Provider    string    `json:"provider" validate:"required,oneof=google icloud outlook"`
	Title       string    `json:"title" validate:"required,trim,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"trim,max=200"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
	AllDay      bool      `json:"allDay"`
	Attendees   []string  `json:"attendees" validate:"max=50,dive,email"`
}

type BusyBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AccountEventsMessage is one server-sent "events" message.
type AccountEventsMessage struct {
	Provider     string          `json:"provider"`
	AccountEmail string          `json:"accountEmail"`
	Events       []EventResponse `json:"events"`
	Error        string          `json:"error,omitempty"`
}

type FriendCalendarResponse struct {
	FriendEmail string      `json:"friendEmail"`
	FriendName  string      `json:"friendName"`
	Busy        []BusyBlock `json:"busy"`
}

// AI drafts

type DraftInvitationRequest struct {
	Title     string   `json:"title" validate:"required,max=1000"`
	Attendees []string `json:"attendees" validate:"max=100"`
	Notes     string   `json:"notes" validate:"max=10000"`
	Tone      string   `json:"tone" validate:"omitempty,oneof=friendly formal casual"`
}

type DraftInvitationResponse struct {
	Draft string `json:"draft"`
}

// Google

type GoogleUserData struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture"`
}

type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// JWT

type UserJwtPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"` // must be "USER"
	jwt.RegisteredClaims
}

type OauthStateJwtPayload struct {
	Type string `json:"type"` // must be "GoogleOAuthState"
	jwt.RegisteredClaims
}
