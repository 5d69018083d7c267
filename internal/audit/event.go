// Package audit は会員イベント（登録・ログインなど）の記録を提供します。
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType はイベント種別です。
type EventType string

const (
	EventSignedUp    EventType = "member.signed_up"
	EventLoggedIn    EventType = "member.logged_in"
	EventLoginFailed EventType = "member.login_failed"
	EventLoggedOut   EventType = "member.logged_out"
)

// Event は1件の会員イベントです。パスワードは含めません。
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	MemberID   int64     `json:"memberId,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEvent は ID と発生時刻を付与したイベントを作成します。
func NewEvent(t EventType, memberID int64, email string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		MemberID:   memberID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher はイベントを発行します。
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// EventRecord は永続化されたイベントです。
type EventRecord struct {
	ID         string    `gorm:"column:id;primaryKey;size:36"`
	Type       string    `gorm:"column:type;index"`
	MemberID   int64     `gorm:"column:member_id;index"`
	Email      string    `gorm:"column:email"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

// TableName は gorm のテーブル名を返します。
func (EventRecord) TableName() string {
	return "member_audit_events"
}
