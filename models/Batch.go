package models

import "time"

// Batch is one production run of a Sku at a planned total weight.
type Batch struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SkuID         uint      `gorm:"not null;index" json:"sku_id"`
	PlannedWeight float64   `gorm:"not null" json:"planned_weight"`
	Status        string    `gorm:"not null;default:pending;index" json:"status"`
	PickedBy      *string   `json:"picked_by"`
	MixedBy       *string   `json:"mixed_by"`
	PressOperator *string   `json:"press_operator"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BatchItem is the frozen copy of a RecipeItem taken when the batch was created,
// plus what was actually picked for it.
type BatchItem struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	BatchID      uint     `gorm:"not null;index" json:"batch_id"`
	Material     string   `gorm:"not null" json:"material"`
	TargetWeight float64  `gorm:"not null" json:"target_weight"`
	Unit         string   `gorm:"not null;default:kg" json:"unit"`
	PickedWeight *float64 `json:"picked_weight"`
	Lot          *string  `json:"lot"`
}
