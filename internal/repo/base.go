package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM connection every domain repository embeds.
type Base struct {
	db *gorm.DB
}

// NewBase binds a GORM connection for embedding in a repository.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to the supplied context, or the raw
// connection when ctx is nil.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
