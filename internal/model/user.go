// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// TimezoneはIANAタイムゾーン名（例: "Asia/Tokyo"）を保持する。
type User struct {
	ID        string
	Email     string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location はユーザーのタイムゾーンを*time.Locationとして返す。
// 不正なタイムゾーン名の場合はエラーを返す。
func (u *User) Location() (*time.Location, error) {
	return time.LoadLocation(u.Timezone)
}
