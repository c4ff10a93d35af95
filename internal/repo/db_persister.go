package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"wgdash/internal/models"
)

// одна строка на весь Dataset
const snapshotID = 1

// DBStore — Persister поверх gorm (postgres/mysql).
type DBStore struct{ db *gorm.DB }

func NewDBStore(db *gorm.DB) *DBStore { return &DBStore{db: db} }

func (s *DBStore) Migrate() error {
	return s.db.AutoMigrate(&models.DatasetSnapshot{})
}

func (s *DBStore) Load(ctx context.Context) (models.Dataset, error) {
	var ds models.Dataset
	var row models.DatasetSnapshot
	err := s.db.WithContext(ctx).First(&row, snapshotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ds, nil
	}
	if err != nil {
		return ds, err
	}
	return decodeSnapshot(row)
}

func (s *DBStore) Save(ctx context.Context, ds *models.Dataset) error {
	row, err := encodeSnapshot(ds)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func encodeSnapshot(ds *models.Dataset) (models.DatasetSnapshot, error) {
	b, err := json.Marshal(ds)
	if err != nil {
		return models.DatasetSnapshot{}, err
	}
	return models.DatasetSnapshot{ID: snapshotID, Data: b}, nil
}

func decodeSnapshot(row models.DatasetSnapshot) (models.Dataset, error) {
	var ds models.Dataset
	if len(row.Data) == 0 {
		return ds, nil
	}
	if err := json.Unmarshal(row.Data, &ds); err != nil {
		return ds, err
	}
	return ds, nil
}

// Ping — для /readyz.
func (s *DBStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
