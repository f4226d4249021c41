package models

import "time"

// Sku is a distinct product definition that batches are produced against.
type Sku struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"not null" json:"name"`
	Flavor             *string   `json:"flavor"`
	StrengthMg         *float64  `json:"strength_mg"`
	TargetTabletWeight *float64  `json:"target_tablet_weight"`
	CreatedAt          time.Time `json:"created_at"`
}
