package models

import "time"

// Draft is the single in-progress workspace of a user. Snapshot and Result
// hold JSON documents; UpdatedMillis mirrors the snapshot's updated_at and
// never moves backwards.
type Draft struct {
	ID            uint   `gorm:"primarykey"`
	UserID        uint   `gorm:"uniqueIndex;not null"`
	Snapshot      string `gorm:"type:text"`
	UpdatedMillis int64  `gorm:"not null;default:0"`
	CalcSeq       uint64 `gorm:"not null;default:0"`
	Result        string `gorm:"type:text"`
	Notice        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
