// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/sukima/internal/model"
	"github.com/hitoshi/sukima/internal/repository"
)

// Service はユーザー管理のサービス層。
// タイムゾーンはここで登録時に検証するため、スケジュール照会時の
// タイムゾーン解決は失敗しない前提で扱える。
type Service struct {
	users repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// Input はユーザー登録の入力。
type Input struct {
	Email    string
	Name     string
	Timezone string // IANAタイムゾーン名（例: Asia/Tokyo）
}

// Register は新しいユーザーを登録する。タイムゾーンはIANA名として
// 解決できなければINVALID_TIMEZONEエラーを返す。
func (s *Service) Register(ctx context.Context, in Input) (*model.User, error) {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, invalidRegistrationError("メールアドレスの形式が正しくありません。")
	}
	if in.Name == "" {
		return nil, invalidRegistrationError("名前が指定されていません。")
	}
	if _, err := time.LoadLocation(in.Timezone); err != nil || in.Timezone == "" {
		return nil, model.NewInvalidTimezoneError(in.Timezone)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Name:      in.Name,
		Timezone:  in.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
		slog.String("timezone", u.Timezone),
	)
	return u, nil
}

// invalidRegistrationError は登録入力の検証エラーを組み立てる。
func invalidRegistrationError(message string) *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return u, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}
