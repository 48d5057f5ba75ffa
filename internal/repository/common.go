package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateAll перезаписывает все колонки строки value по её первичному ключу.
// Хуки модели (BeforeSave и т.п.) вызываются на самом value.
func updateAll(ctx context.Context, db *gorm.DB, value any) *gorm.DB {
	return db.WithContext(ctx).
		Model(value).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(value)
}
