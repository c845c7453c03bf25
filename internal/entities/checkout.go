package entities

import "time"

type Checkout struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index" json:"user_id"`
	BookID uint `gorm:"index" json:"book_id"`

	CheckedOutAt time.Time  `json:"checked_out_at"`
	DueAt        time.Time  `gorm:"index" json:"due_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`

	Returned bool `gorm:"default:false;index" json:"returned"`
	Late     bool `gorm:"default:false" json:"late"`
	FeeCents int  `gorm:"default:0" json:"fee_cents"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Checkout) TableName() string {
	return "checkouts"
}

// Overdue reports whether an open checkout is past its due date.
func (c *Checkout) Overdue(now time.Time) bool {
	return !c.Returned && now.After(c.DueAt)
}
