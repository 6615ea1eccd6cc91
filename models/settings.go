package models

import "github.com/uptrace/bun"

// Settings is the single-row application settings record.
type Settings struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	ID                   int  `bun:"id,pk" json:"-"`
	NotificationsEnabled bool `bun:"notifications_enabled,notnull,default:false" json:"notifications_enabled"`
}
