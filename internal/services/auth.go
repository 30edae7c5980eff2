package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
	"github.com/notelab/notebook-backend/internal/utils"
)

type RegisterInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	User         *types.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context) (*AuthResult, error)
	Logout(ctx context.Context) error
	// SetContextFromToken validates the bearer token and stamps the
	// resolved user into request context for downstream services.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      repos.UserRepo
	userTokens repos.UserTokenRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, users repos.UserRepo, userTokens repos.UserTokenRepo, baseLog *logger.Logger) AuthService {
	log := baseLog.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", log)
	if secret == "" {
		log.Warn("JWT_SECRET not set; using an insecure development secret")
		secret = "dev-secret-do-not-use"
	}
	return &authService{
		db:         db,
		log:        log,
		users:      users,
		userTokens: userTokens,
		jwtSecret:  []byte(secret),
		accessTTL:  utils.GetEnvAsDuration("JWT_ACCESS_TTL", time.Hour, log),
		refreshTTL: utils.GetEnvAsDuration("JWT_REFRESH_TTL", 30*24*time.Hour, log),
	}
}

type authClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *authService) signToken(userID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := authClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *authService) parseToken(tokenString string) (uuid.UUID, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	return userID, nil
}

func (s *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*AuthResult, error) {
	accessToken, expiresAt, err := s.signToken(user.ID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.signToken(user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	_, err = s.userTokens.Create(ctx, tx, []*types.UserToken{{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}})
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: email and a password of at least 8 characters are required", pkgerrors.ErrInvalidArgument)
	}
	exists, err := s.users.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", pkgerrors.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		created, err := s.users.Create(ctx, tx, []*types.User{{
			Email:     email,
			Password:  string(hash),
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
		}})
		if err != nil {
			return err
		}
		result, err = s.issueTokens(ctx, tx, created[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("User registered", "user_id", result.User.ID)
	return result, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	found, err := s.users.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	user := found[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, pkgerrors.ErrUnauthorized
	}

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) Refresh(ctx context.Context) (*AuthResult, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return nil, pkgerrors.ErrUnauthorized
	}
	userID, err := s.parseToken(rd.RefreshToken)
	if err != nil {
		return nil, err
	}
	tokens, err := s.userTokens.GetByRefreshTokens(ctx, nil, []string{rd.RefreshToken})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || tokens[0].UserID != userID {
		return nil, pkgerrors.ErrUnauthorized
	}
	users, err := s.users.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userTokens.DeleteByIDs(ctx, tx, []uuid.UUID{tokens[0].ID}); err != nil {
			return err
		}
		result, err = s.issueTokens(ctx, tx, users[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return pkgerrors.ErrUnauthorized
	}
	tokens, err := s.userTokens.GetByAccessTokens(ctx, nil, []string{rd.TokenString})
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	return s.userTokens.DeleteByIDs(ctx, nil, []uuid.UUID{tokens[0].ID})
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return ctx, pkgerrors.ErrUnauthorized
	}
	userID, err := s.parseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	tokens, err := s.userTokens.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, err
	}
	if len(tokens) == 0 || tokens[0].UserID != userID {
		return ctx, pkgerrors.ErrUnauthorized
	}
	if time.Now().After(tokens[0].ExpiresAt) {
		return ctx, pkgerrors.ErrUnauthorized
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}
