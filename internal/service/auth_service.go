package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
	"github.com/noah-isme/gcc-pulse-api/internal/session"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRoleNotAllowed indicates the requested role cannot be self-assigned.
	ErrRoleNotAllowed = errors.New("role cannot be requested at signup")
	// ErrInvalidSession indicates a missing, expired or revoked session token.
	ErrInvalidSession = errors.New("invalid session")
)

// SessionManager issues and verifies session tokens.
type SessionManager interface {
	Issue(identity access.Identity) (session.Tokens, error)
	Verify(ctx context.Context, token string) (access.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (session.Tokens, access.Identity, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService is the identity provider: accounts, sign-in and sessions.
type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (dto.AuthResponse, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (dto.AuthResponse, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (access.Identity, error)
}

type authService struct {
	users     repository.UserRepository
	sessions  SessionManager
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	hashCost  int
}

// NewAuthService constructs the identity provider.
func NewAuthService(users repository.UserRepository, sessions SessionManager, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gcc-pulse-api/internal/service/auth"),
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.signup")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	role := access.ParseRole(req.Role)
	if role == access.RoleSuperAdmin {
		return dto.AuthResponse{}, ErrRoleNotAllowed
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		Role:         string(role),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return dto.AuthResponse{}, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", maskEmailAddress(user.Email)).
		Str("role", user.Role).
		Msg("account created")
	return s.issue(user)
}

func (s *authService) SignIn(ctx context.Context, req dto.SignInRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.signin")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", maskEmailAddress(req.Email)).Msg("sign-in rejected")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (dto.AuthResponse, error) {
	tokens, identity, err := s.sessions.Refresh(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		return dto.AuthResponse{}, s.sessionError(err)
	}

	user := dto.NewIdentityResponse(identity)
	if stored, err := s.users.GetByID(ctx, identity.ID); err == nil {
		user = dto.NewUserResponse(stored)
	}

	return newAuthResponse(tokens, user), nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, strings.TrimSpace(token)); err != nil {
		return s.sessionError(err)
	}
	return nil
}

func (s *authService) Session(ctx context.Context, token string) (access.Identity, error) {
	identity, err := s.sessions.Verify(ctx, strings.TrimSpace(token))
	if err != nil {
		return access.Identity{}, s.sessionError(err)
	}
	return identity, nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	tokens, err := s.sessions.Issue(access.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  access.ParseRole(user.Role),
	})
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return newAuthResponse(tokens, dto.NewUserResponse(user)), nil
}

func (s *authService) sessionError(err error) error {
	if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrRevokedToken) {
		return ErrInvalidSession
	}
	s.logger.Error().Err(err).Msg("session store failure")
	return err
}

func newAuthResponse(tokens session.Tokens, user dto.UserResponse) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		ExpiresAt:        tokens.ExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
		User:             user,
	}
}

// maskEmailAddress keeps the first and last character of the local part so
// log lines stay correlatable without exposing the address.
func maskEmailAddress(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
