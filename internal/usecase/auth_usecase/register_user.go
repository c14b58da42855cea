package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/rs/zerolog"
)

// 会員登録の入力
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	issuer   AccessTokenIssuer
	idGen    usecase.IDGenerator
	clock    usecase.Clock
	logger   zerolog.Logger
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	idGen usecase.IDGenerator,
	clock usecase.Clock,
	logger zerolog.Logger,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		idGen:    idGen,
		clock:    clock,
		logger:   logger,
	}
}

// 会員登録実行。登録後そのままトークンを返す
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if username == "" {
		return AuthOutput{}, usecase.NewAppError(usecase.KindInvalidInput, "username required")
	}
	if !isValidEmailFormat(email) {
		return AuthOutput{}, usecase.NewAppError(usecase.KindInvalidInput, "invalid email format")
	}
	if len(in.Password) < minPasswordLength {
		return AuthOutput{}, usecase.NewAppError(usecase.KindInvalidInput, "password too short")
	}
	if len(in.Password) > maxPasswordLength {
		return AuthOutput{}, usecase.NewAppError(usecase.KindInvalidInput, "password too long")
	}

	// email重複チェック
	_, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return AuthOutput{}, usecase.NewAppError(usecase.KindAlreadyExists, "A user with that email already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return AuthOutput{}, u.storageFailed(ctx, "user.FindByEmail", err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, u.storageFailed(ctx, "password.Hash", err)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 同時登録は一意制約で弾く
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthOutput{}, usecase.NewAppError(usecase.KindAlreadyExists, "A user with that email already exists")
		}
		return AuthOutput{}, u.storageFailed(ctx, "user.Create", err)
	}

	return issueToken(u.issuer, user, now)
}

func (u *RegisterUserUsecase) storageFailed(ctx context.Context, op string, err error) error {
	zerologFrom(ctx, u.logger).Error().Err(err).Str("op", op).Msg("storage operation failed")
	return usecase.NewAppError(usecase.KindStorageFailed, "database operation failed")
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
