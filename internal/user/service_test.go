package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/sukima/internal/model"
)

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	createFn   func(ctx context.Context, user *model.User) error
	listFn     func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func TestService_Register(t *testing.T) {
	t.Run("正常な入力で登録できる", func(t *testing.T) {
		var created *model.User
		repo := &mockUserRepo{
			createFn: func(ctx context.Context, user *model.User) error {
				created = user
				return nil
			},
		}
		svc := NewService(repo)

		got, err := svc.Register(context.Background(), Input{
			Email:    "taro@example.com",
			Name:     "太郎",
			Timezone: "Asia/Tokyo",
		})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if created == nil {
			t.Fatal("リポジトリのCreateが呼ばれていない")
		}
		if got.ID == "" {
			t.Error("IDが採番されていない")
		}
		if got.Timezone != "Asia/Tokyo" {
			t.Errorf("Timezone = %q, want Asia/Tokyo", got.Timezone)
		}
	})

	t.Run("不正なタイムゾーンはINVALID_TIMEZONE", func(t *testing.T) {
		svc := NewService(&mockUserRepo{})

		_, err := svc.Register(context.Background(), Input{
			Email:    "taro@example.com",
			Name:     "太郎",
			Timezone: "JST",
		})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTimezone {
			t.Fatalf("err = %v, want INVALID_TIMEZONE", err)
		}
	})

	t.Run("不正なメールアドレスは検証エラー", func(t *testing.T) {
		svc := NewService(&mockUserRepo{})

		_, err := svc.Register(context.Background(), Input{
			Email:    "not-an-email",
			Name:     "太郎",
			Timezone: "Asia/Tokyo",
		})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_REQUEST" {
			t.Fatalf("err = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("空の名前は検証エラー", func(t *testing.T) {
		svc := NewService(&mockUserRepo{})

		_, err := svc.Register(context.Background(), Input{
			Email:    "taro@example.com",
			Name:     "",
			Timezone: "Asia/Tokyo",
		})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_REQUEST" {
			t.Fatalf("err = %v, want INVALID_REQUEST", err)
		}
	})
}

func TestService_Get(t *testing.T) {
	t.Run("存在するユーザーを取得できる", func(t *testing.T) {
		repo := &mockUserRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{ID: id, Name: "太郎", Timezone: "Asia/Tokyo"}, nil
			},
		}
		svc := NewService(repo)

		got, err := svc.Get(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != "user-1" {
			t.Errorf("ID = %q, want user-1", got.ID)
		}
	})

	t.Run("存在しないユーザーはUSER_NOT_FOUND", func(t *testing.T) {
		svc := NewService(&mockUserRepo{})

		_, err := svc.Get(context.Background(), "ghost")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
			t.Fatalf("err = %v, want USER_NOT_FOUND", err)
		}
	})
}
