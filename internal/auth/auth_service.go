package auth

import (
	"context"
	"errors"
	"os"
	"time"

	autherrors "go-elms/internal/auth/errors"
	"go-elms/internal/authz"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error)
	GetMe(ctx context.Context, userID string) (MeResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, logger: l}
}

func secret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func (s *service) mintTokens(u *User) (TokenResponse, error) {
	employeeID := ""
	if u.EmployeeID != nil {
		employeeID = u.EmployeeID.String()
	}

	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":     u.ID.String(),
		"employee_id": employeeID,
		"role":        authz.NormalizeRole(u.Role),
		"iat":         now.Unix(),
		"exp":         now.Add(accessTokenTTL).Unix(),
	})
	accessToken, err := access.SignedString(secret())
	if err != nil {
		return TokenResponse{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"typ":     "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(refreshTokenTTL).Unix(),
	})
	refreshToken, err := refresh.SignedString(secret())
	if err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a bad password so probes cannot enumerate accounts.
			return TokenResponse{}, autherrors.ErrInvalidCredentials
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.logger.Warn("login rejected", zap.String("email", req.Email))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return TokenResponse{}, autherrors.ErrUserInactive
	}

	resp, err := s.mintTokens(user)
	if err != nil {
		s.logger.Error("token mint failed", zap.Error(err))
		return TokenResponse{}, err
	}

	s.logger.Info("login success", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error) {
	token, err := jwt.Parse(req.RefreshToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret(), nil
	})
	if err != nil || !token.Valid {
		return TokenResponse{}, autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenResponse{}, autherrors.ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return TokenResponse{}, autherrors.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, autherrors.ErrInvalidToken
		}
		return TokenResponse{}, err
	}
	if !user.IsActive {
		return TokenResponse{}, autherrors.ErrUserInactive
	}

	return s.mintTokens(user)
}

func (s *service) GetMe(ctx context.Context, userID string) (MeResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MeResponse{}, autherrors.ErrUserNotFound
		}
		return MeResponse{}, err
	}

	return mapToMeResponse(*user), nil
}
