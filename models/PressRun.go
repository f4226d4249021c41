package models

import "time"

type PressRun struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	BatchID             uint      `gorm:"not null;index" json:"batch_id"`
	ReceivedWeight      *float64  `json:"received_weight"`
	TabletWeight        *float64  `json:"tablet_weight"`
	ExpectedTabletCount *int64    `json:"expected_tablet_count"`
	FinalWeight         *float64  `json:"final_weight"`
	LossWeight          *float64  `json:"loss_weight"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
