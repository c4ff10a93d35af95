package models

import (
	"time"

	"gorm.io/datatypes"
)

// DatasetSnapshot — строка в БД, когда хранилище не файл, а gorm.
// Весь Dataset лежит одним JSON-документом, как и в data.json.
type DatasetSnapshot struct {
	ID        uint `gorm:"primaryKey"`
	Data      datatypes.JSON
	UpdatedAt time.Time
}
