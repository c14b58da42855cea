package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// bcryptが扱える上限(バイト)
const maxPasswordLength = 72

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// 登録・ログイン共通の出力（passwordは返さない）
type AuthOutput struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID string, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    usecase.Clock
	logger   zerolog.Logger
}

// DI
func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock usecase.Clock,
	logger zerolog.Logger,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
		logger:   logger,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthOutput{}, usecase.NewAppError(usecase.KindNotFound, "User does not exist")
	}
	if err != nil {
		zerologFrom(ctx, u.logger).Error().Err(err).Str("op", "user.FindByEmail").Msg("storage operation failed")
		return AuthOutput{}, usecase.NewAppError(usecase.KindStorageFailed, "database operation failed")
	}

	//パスワード照合
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return AuthOutput{}, usecase.NewAppError(usecase.KindWrongPassword, "Wrong password")
	}

	return issueToken(u.issuer, user, u.clock.Now())
}

func issueToken(issuer AccessTokenIssuer, user *model.User, now time.Time) (AuthOutput, error) {
	token, exp, err := issuer.Issue(user.ID, now)
	if err != nil {
		return AuthOutput{}, err
	}
	return AuthOutput{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		AccessToken: token,
		ExpiresAt:   exp,
	}, nil
}

func zerologFrom(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
