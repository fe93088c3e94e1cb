// Package models defines GORM data models for CalqShell.
package models

import "time"

// Preference is one persisted key-value entry. Each preference kind owns a
// single fixed key; Value holds the JSON-serialized preference.
type Preference struct {
	Key       string    `gorm:"column:pref_key;primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
