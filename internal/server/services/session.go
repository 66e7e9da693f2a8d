package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/openaudit/internal/common"
	"github.com/dmitrijs2005/openaudit/internal/dbx"
	"github.com/dmitrijs2005/openaudit/internal/securex"
	"github.com/dmitrijs2005/openaudit/internal/server/auth"
	"github.com/dmitrijs2005/openaudit/internal/server/config"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService mints token pairs for authenticated accounts and rotates
// refresh tokens. It sits on top of AccountService.Authenticate, so every
// credential failure surfaces as ErrIncorrectCredentials.
type SessionService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	accounts                     *AccountService
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, accounts *AccountService, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repos:                        m,
		accounts:                     accounts,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Login verifies the credentials and, on success, returns a fresh
// TokenPair.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	account, err := s.accounts.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, account.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired;
// unknown tokens yield ErrInvalidToken.
func (s *SessionService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repos.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.AccountID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a single refresh token. Unknown tokens are not an error.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	return s.repos.RefreshTokens(s.db).Delete(ctx, refreshToken)
}

func (s *SessionService) generateTokenPair(ctx context.Context, accountID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := securex.RandomToken(2 * securex.CodeLength)
	if err != nil {
		return nil, err
	}
	if err := s.repos.RefreshTokens(tx).Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
