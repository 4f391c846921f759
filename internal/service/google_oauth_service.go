package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials/idtoken"
	"golang.org/x/oauth2"
	"gorm.io/datatypes"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/provider"
	"github.com/calhub/calendar-service-go/internal/repository"
	"github.com/calhub/calendar-service-go/internal/store"
	"github.com/calhub/calendar-service-go/internal/util/jwt"
)

const FrontendOAuthCallbackPath = "/auth/callback"

type AuthService struct {
	Dep      *dependency.Dependency
	Accounts repository.AccountRepository
	Codes    store.CodeStore
	OAuth    *oauth2.Config
}

func NewAuthService(dep *dependency.Dependency, accounts repository.AccountRepository, codes store.CodeStore) *AuthService {
	if accounts == nil || codes == nil {
		panic("AuthService: dependencies are nil")
	}

	return &AuthService{
		Dep:      dep,
		Accounts: accounts,
		Codes:    codes,
		OAuth:    provider.GoogleOAuthConfig(dep.Cfg),
	}
}

// GoogleGrant is the result of a successful code exchange.
type GoogleGrant struct {
	Token   *oauth2.Token
	Payload *idtoken.Payload
}

var ExchangeCodeForTokens = func(dep *dependency.Dependency, ctx context.Context, oauthCfg *oauth2.Config, code string) (*GoogleGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 5 * time.Second})

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google token response has no id_token")
	}

	payload, err := idtoken.Validate(ctx, rawIDToken, dep.Cfg.GoogleClientId)
	if err != nil {
		return nil, err
	}

	return &GoogleGrant{Token: token, Payload: payload}, nil
}

var FetchGoogleUserInfo = func(payload *idtoken.Payload) (*dto.GoogleUserData, error) {
	sub := payload.Subject
	if sub == "" {
		return nil, appError.NewBadRequest("google id token missing subject")
	}

	jsonClaims, err := json.Marshal(payload.Claims)
	if err != nil {
		return nil, appError.NewAppError(500, "failed to Marshal google jwt token")
	}

	var claims dto.GoogleClaims
	err = json.Unmarshal(jsonClaims, &claims)
	if err != nil {
		return nil, appError.NewAppError(500, "failed to Unmarshal google jwt token")
	}

	if claims.Email == "" {
		return nil, appError.NewBadRequest("google id token missing email")
	}

	googleUserInfo := &dto.GoogleUserData{
		ID:    sub,
		Email: strings.ToLower(claims.Email),
		Name:  claims.Name,
	}

	if claims.Picture != "" {
		googleUserInfo.Picture = &claims.Picture
	}

	return googleUserInfo, nil
}

func (s *AuthService) GetGoogleOAuthURL(ctx context.Context) (string, error) {
	state, err := jwt.SignOauthStateToken(s.Dep)
	if err != nil {
		s.Dep.Logger.Error("failed to sign oauth state token:", "err", err)
		return "", err
	}

	return s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

func assembleFrontendRedirectURL(dep *dependency.Dependency, code *string, errMsg *string) string {
	u, err := url.Parse(dep.Cfg.FrontendUrl + FrontendOAuthCallbackPath)
	if err != nil {
		dep.Logger.Error("failed to parse frontend redirect url:", "err", err)
		return "/unrecovered-error"
	}

	q := u.Query()
	if code != nil {
		q.Set("code", *code)
	}
	if errMsg != nil {
		q.Set("error", *errMsg)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func HandleGoogleOAuthCallbackError(dep *dependency.Dependency, err error, errMsg string) string {
	publicMsg := "Failed to handle Google OAuth callback."
	dep.Logger.Error(errMsg, "error", err)
	return assembleFrontendRedirectURL(dep, nil, &publicMsg)
}

// HandleGoogleOAuthCallback signs the user in and returns the frontend URL to redirect
// to. The session token is handed over through a one-time exchange code.
func (s *AuthService) HandleGoogleOAuthCallback(ctx context.Context, code string, state string) string {
	claims, err := jwt.ValidateOauthStateToken(s.Dep, state)
	if err != nil || claims.Type != jwt.GoogleOAuthStateType {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "invalid oauth state token")
	}

	grant, err := ExchangeCodeForTokens(s.Dep, ctx, s.OAuth, code)
	if err != nil {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "failed to exchange code for tokens")
	}

	googleUserInfo, err := FetchGoogleUserInfo(grant.Payload)
	if err != nil {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "failed to fetch google user info from id token")
	}

	account := &model.Account{
		UserID:        googleUserInfo.ID,
		Provider:      model.ProviderGoogle,
		ExternalEmail: &googleUserInfo.Email,
		Metadata: datatypes.NewJSONType(model.AccountMetadata{
			Name:   googleUserInfo.Name,
			Avatar: googleUserInfo.Picture,
		}),
	}
	if grant.Token != nil {
		account.AccessToken = &grant.Token.AccessToken
		if grant.Token.RefreshToken != "" {
			account.RefreshToken = &grant.Token.RefreshToken
		}
		if !grant.Token.Expiry.IsZero() {
			expiry := grant.Token.Expiry
			account.TokenExpiry = &expiry
		}
	}

	err = s.Accounts.Upsert(ctx, account)
	if err != nil {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "failed to upsert google account")
	}

	userToken, err := jwt.SignUserToken(s.Dep, account.UserID, googleUserInfo.Email)
	if err != nil {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "failed to sign user token")
	}

	exchangeCode, err := s.Codes.Put(ctx, userToken, time.Duration(s.Dep.Cfg.ExchangeCodeExpiry)*time.Second)
	if err != nil {
		return HandleGoogleOAuthCallbackError(s.Dep, err, "failed to store exchange code")
	}

	s.Dep.Logger.Info("user signed in with google", "userID", account.UserID)
	return assembleFrontendRedirectURL(s.Dep, &exchangeCode, nil)
}

// ExchangeCode trades a one-time code for the session token it was issued for.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.Codes.Take(ctx, code)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, appError.NewUnauthorized("invalid or expired code")
	}

	claims, err := jwt.ValidateUserTokenGeneric(s.Dep, token)
	if err != nil {
		return nil, appError.NewUnauthorized("invalid or expired code")
	}

	account, err := s.Accounts.FindByUserID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, appError.NewNotFound("account not found")
	}

	return &dto.AuthResponse{
		Token: token,
		User:  accountToResponse(account),
	}, nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*dto.AccountResponse, error) {
	account, err := s.Accounts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, appError.NewNotFound("account not found")
	}

	resp := accountToResponse(account)
	return &resp, nil
}

func accountToResponse(account *model.Account) dto.AccountResponse {
	meta := account.Metadata.Data()
	name := meta.Name
	if name == "" && account.ExternalEmail != nil {
		name = *account.ExternalEmail
	}

	return dto.AccountResponse{
		Provider:      account.Provider,
		UserID:        account.UserID,
		Email:         account.ExternalEmail,
		Name:          name,
		Avatar:        meta.Avatar,
		PrimaryUserID: account.PrimaryUserID,
		CreatedAt:     account.CreatedAt.Unix(),
	}
}
