package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/security/auth"
)

// AuthService handles operator authentication
type AuthService struct {
	operators domain.OperatorRepository
	tokens    *auth.TokenManager
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	operators domain.OperatorRepository,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthService{operators: operators, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// LoginResult represents login response
type LoginResult struct {
	OperatorID string `json:"operatorId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Token      string `json:"token"`
	ExpiresIn  int    `json:"expiresIn"` // seconds
	TokenType  string `json:"tokenType"`
}

// Login authenticates an operator and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Validationf("email and password are required")
	}

	op, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown email", slog.String("email", email))
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(op.PasswordHash, password); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("operator_id", op.ID))
		return nil, err
	}

	token, err := s.tokens.GenerateToken(op.ID, op.Email, string(op.Role), s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("operator logged in",
		slog.String("operator_id", op.ID),
		slog.String("role", string(op.Role)),
	)
	return &LoginResult{
		OperatorID: op.ID,
		Email:      op.Email,
		Role:       string(op.Role),
		Token:      token,
		ExpiresIn:  int(s.tokenTTL.Seconds()),
		TokenType:  "Bearer",
	}, nil
}

// SeedOwner creates the owner operator on first start. An existing operator
// with that email is left alone.
func (s *AuthService) SeedOwner(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.operators.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	op := &domain.Operator{
		Email:        email,
		Name:         "Owner",
		PasswordHash: hash,
		Role:         domain.RoleOwner,
		IsActive:     true,
	}
	if err := s.operators.Create(ctx, op); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to seed owner: %w", err)
	}
	s.logger.Info("owner operator created", slog.String("operator_id", op.ID))
	return nil
}

// ChangePassword replaces an operator's password after checking the old one
func (s *AuthService) ChangePassword(ctx context.Context, operatorID, oldPassword, newPassword string) error {
	op, err := s.operators.GetByID(ctx, operatorID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(op.PasswordHash, oldPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return domain.Validationf("%s", err.Error())
	}
	if err := s.operators.UpdatePassword(ctx, op.ID, hash); err != nil {
		return err
	}
	s.logger.Info("operator changed password", slog.String("operator_id", op.ID))
	return nil
}
