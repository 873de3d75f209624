package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/health-risk-be/internal/http/respond"
	"github.com/hongminglow/health-risk-be/internal/identity"
	"github.com/hongminglow/health-risk-be/internal/middleware"
	"github.com/hongminglow/health-risk-be/internal/models/dto"
)

// IdentityService is the identity surface used by AuthHandler.
type IdentityService interface {
	Register(ctx context.Context, in identity.RegisterInput) (identity.Registration, error)
	Login(ctx context.Context, identifier, password string) (identity.Session, error)
	ConsumeVerification(ctx context.Context, token string) (identity.VerifyResult, error)
	ResendVerification(ctx context.Context, email string) (identity.VerificationDelivery, error)
}

// AuthHandler owns signup, login and email verification endpoints.
type AuthHandler struct {
	svc IdentityService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc IdentityService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Routes attaches auth routes to r; authed guards /auth/me.
func (h *AuthHandler) Routes(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Get("/verify-email", h.handleVerify)
		r.Post("/resend-verification", h.handleResend)
		r.With(authed).Get("/me", h.handleMe)
	})
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	phone := req.Phone
	if strings.TrimSpace(phone) == "" {
		phone = req.PhoneNumber
	}

	reg, err := h.svc.Register(r.Context(), identity.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       phone,
		DateOfBirth: req.DateOfBirth.Time,
	})
	if err != nil {
		switch {
		case respondInvalid(w, err):
		case errors.Is(err, identity.ErrDuplicateEmail):
			respond.Error(w, http.StatusConflict, "email already registered")
		case errors.Is(err, identity.ErrDuplicateUsername):
			respond.Error(w, http.StatusConflict, "username already taken")
		default:
			respondInternal(w, r, "signup", err)
		}
		return
	}

	message := "User created successfully. Please check your email to verify your account."
	if !reg.Delivery.EmailSent {
		message = "User created successfully, but the verification email could not be sent."
	}
	respond.JSON(w, http.StatusCreated, message, dto.SignupResponse{
		User:             dto.NewUserResponse(reg.User),
		VerificationLink: reg.Delivery.Link,
		EmailSent:        reg.Delivery.EmailSent,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		respond.Invalid(w, "identifier and password are required", nil)
		return
	}

	session, err := h.svc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, identity.ErrNotVerified):
			respond.Error(w, http.StatusForbidden, "email not verified")
		default:
			respondInternal(w, r, "login", err)
		}
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresAt:   session.ExpiresAt,
		User:        dto.NewUserResponse(session.User),
	})
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ConsumeVerification(r.Context(), strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrTokenNotFound):
			respond.Error(w, http.StatusBadRequest, "invalid verification token")
		case errors.Is(err, identity.ErrTokenExpired):
			respond.Error(w, http.StatusBadRequest, "verification token expired")
		default:
			respondInternal(w, r, "verify email", err)
		}
		return
	}
	message := "email verified"
	if res.AlreadyVerified {
		message = "email already verified"
	}
	respond.JSON(w, http.StatusOK, message, dto.VerifyResponse{
		AlreadyVerified: res.AlreadyVerified,
		User:            dto.NewUserResponse(res.User),
	})
}

func (h *AuthHandler) handleResend(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respond.Invalid(w, "validation failed", map[string][]string{"email": {"is required"}})
		return
	}

	delivery, err := h.svc.ResendVerification(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrIdentityNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, identity.ErrAlreadyVerified):
			respond.Error(w, http.StatusBadRequest, "email already verified")
		case errors.Is(err, identity.ErrTooManyRequests):
			respond.Error(w, http.StatusTooManyRequests, "too many verification requests, try again later")
		default:
			respondInternal(w, r, "resend verification", err)
		}
		return
	}
	message := "verification email sent"
	if !delivery.EmailSent {
		message = "verification email could not be sent"
	}
	respond.JSON(w, http.StatusOK, message, dto.ResendResponse{
		VerificationLink: delivery.Link,
		EmailSent:        delivery.EmailSent,
	})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewUserResponse(user))
}
