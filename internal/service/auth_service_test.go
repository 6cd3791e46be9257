package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterHashesAndNormalizes(t *testing.T) {
	store := new(MockExaminerStore)
	svc := NewAuthService(testConfig(), store, testLogger())

	store.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Examiner) bool {
		return e.Email == "ada@example.com" && e.Name == "Ada" && e.PasswordHash != "secret1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Examiner).ID = uuid.New()
	}).Return(nil)

	examiner, err := svc.Register(context.Background(), model.RegisterExaminerRequest{
		Name: " Ada ", Email: " Ada@Example.com ", Password: "secret1",
	})
	require.NoError(t, err)
	assert.NoError(t, svc.CheckPassword(examiner.PasswordHash, "secret1"))
	assert.ErrorIs(t, svc.CheckPassword(examiner.PasswordHash, "wrong"), ErrInvalidCredentials)
	store.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	store := new(MockExaminerStore)
	svc := NewAuthService(testConfig(), store, testLogger())
	store.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "23505"})

	_, err := svc.Register(context.Background(), model.RegisterExaminerRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_LoginIssuesValidToken(t *testing.T) {
	store := new(MockExaminerStore)
	svc := NewAuthService(testConfig(), store, testLogger())

	hash, err := svc.HashPassword("secret1")
	require.NoError(t, err)
	examiner := &model.Examiner{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", PasswordHash: hash}
	store.On("GetByEmail", mock.Anything, "ada@example.com").Return(examiner, nil)

	res, err := svc.Login(context.Background(), model.ExaminerLoginRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeExaminer, claims.TokenType)
	assert.Equal(t, examiner.ID, claims.ExaminerID)
	assert.Equal(t, examiner.ID.String(), claims.Subject)
}

func TestAuthService_LoginFailures(t *testing.T) {
	store := new(MockExaminerStore)
	svc := NewAuthService(testConfig(), store, testLogger())

	hash, err := svc.HashPassword("secret1")
	require.NoError(t, err)
	store.On("GetByEmail", mock.Anything, "ada@example.com").
		Return(&model.Examiner{ID: uuid.New(), PasswordHash: hash}, nil)
	store.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, pgx.ErrNoRows)

	_, err = svc.Login(context.Background(), model.ExaminerLoginRequest{Email: "ada@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), model.ExaminerLoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenRejectsForeignSecret(t *testing.T) {
	svc := NewAuthService(testConfig(), new(MockExaminerStore), testLogger())
	otherCfg := testConfig()
	otherCfg.JWTSecret = "other"
	other := NewAuthService(otherCfg, new(MockExaminerStore), testLogger())

	token, err := other.GenerateToken(&model.Examiner{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_Me(t *testing.T) {
	store := new(MockExaminerStore)
	svc := NewAuthService(testConfig(), store, testLogger())
	missing := uuid.New()
	store.On("GetByID", mock.Anything, missing).Return(nil, pgx.ErrNoRows)

	_, err := svc.Me(context.Background(), missing)
	assert.ErrorIs(t, err, ErrExaminerNotFound)
}
