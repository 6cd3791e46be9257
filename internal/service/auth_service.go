package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrExaminerNotFound   = errors.New("examiner not found")
)

// TokenType distinguishes token audiences.
type TokenType string

const (
	TokenTypeExaminer TokenType = "examiner"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType  TokenType `json:"token_type"`
	ExaminerID uuid.UUID `json:"examiner_id"`
	Email      string    `json:"email"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token    string          `json:"token"`
	Examiner *model.Examiner `json:"examiner"`
}

// AuthService handles examiner registration, password checks and JWTs.
type AuthService struct {
	cfg       *config.Config
	examiners ExaminerStore
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, examiners ExaminerStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:       cfg,
		examiners: examiners,
		log:       log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an examiner account.
func (s *AuthService) Register(ctx context.Context, req model.RegisterExaminerRequest) (*model.Examiner, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	examiner := &model.Examiner{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.examiners.Create(ctx, examiner); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create examiner: %w", err)
	}

	s.log.Info().Str("examiner_id", examiner.ID.String()).Msg("Examiner registered")
	return examiner, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req model.ExaminerLoginRequest) (*LoginResult, error) {
	examiner, err := s.examiners.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get examiner: %w", err)
	}

	if err := s.CheckPassword(examiner.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(examiner)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Examiner: examiner}, nil
}

// Me returns the examiner behind a validated token.
func (s *AuthService) Me(ctx context.Context, examinerID uuid.UUID) (*model.Examiner, error) {
	examiner, err := s.examiners.GetByID(ctx, examinerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExaminerNotFound
		}
		return nil, fmt.Errorf("get examiner: %w", err)
	}
	return examiner, nil
}

// GenerateToken creates a signed JWT for an examiner.
func (s *AuthService) GenerateToken(examiner *model.Examiner) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   examiner.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:  TokenTypeExaminer,
		ExaminerID: examiner.ID,
		Email:      examiner.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
