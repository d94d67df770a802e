package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/models"
	"github.com/AnshRaj112/grow-backend/pkg/utils"
)

// AccountKeyPrefix is the record key prefix for accounts.
const AccountKeyPrefix = "user:"

// AccountService registers and authenticates journal owners by email and password.
type AccountService struct {
	store database.Store
	codec *Codec
	log   *zap.Logger
	now   func() time.Time
}

func NewAccountService(store database.Store, codec *Codec, log *zap.Logger) *AccountService {
	return &AccountService{store: store, codec: codec, log: log, now: time.Now}
}

// NormalizeEmail trims and lowercases an email so it can be used as a record key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountKey(email string) string {
	return AccountKeyPrefix + email
}

// SignUp creates an account. The key is written with version 0 so two signups for the
// same email cannot both succeed.
func (s *AccountService) SignUp(ctx context.Context, email, password string) (models.Account, error) {
	email = NormalizeEmail(email)

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	err = saveRecord(ctx, s.store, s.codec, accountKey(email), 0, account)
	if errors.Is(err, models.ErrConflict) {
		return models.Account{}, models.ErrAccountExists
	}
	if err != nil {
		s.log.Sugar().Errorw("failed to create account", "user", email, "err", err)
		return models.Account{}, err
	}

	s.log.Sugar().Infow("account created", "user", email)
	return account, nil
}

// SignIn checks the password and returns the account. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (models.Account, error) {
	email = NormalizeEmail(email)

	var account models.Account
	version, err := loadRecord(ctx, s.store, s.codec, accountKey(email), &account)
	if err != nil {
		s.log.Sugar().Errorw("failed to load account", "user", email, "err", err)
		return models.Account{}, err
	}
	if version == 0 {
		return models.Account{}, models.ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		s.log.Sugar().Errorw("stored password hash is invalid", "user", email, "err", err)
		return models.Account{}, models.ErrInvalidCredentials
	}
	if !ok {
		return models.Account{}, models.ErrInvalidCredentials
	}
	return account, nil
}
