package order

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StatusEntry is one row of the append-only order status audit trail. Rows
// are never edited or deleted; Sequence is monotonic per order so the log
// reads back in the exact transition order even when timestamps collide.
type StatusEntry struct {
	shared.BaseEntity
	OrderID  uuid.UUID   `gorm:"type:uuid;not null;index:idx_status_entries_order_seq,unique"`
	Sequence int         `gorm:"not null;index:idx_status_entries_order_seq,unique"`
	Status   OrderStatus `gorm:"type:varchar(30);not null"`
	Actor    string      `gorm:"type:varchar(100);not null"`
	Comment  string      `gorm:"type:varchar(500)"`
	At       time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusEntry) TableName() string {
	return "order_status_entries"
}
