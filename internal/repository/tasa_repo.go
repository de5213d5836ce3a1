package repository

import (
	"context"

	"venpos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TasaRepository interface {
	FindByFecha(ctx context.Context, fecha string) (*model.TasaCambio, error)
	// Upsert inserta o reemplaza la tasa de la fecha — a lo sumo una por día.
	Upsert(ctx context.Context, t *model.TasaCambio) error
	Historial(ctx context.Context, limit int) ([]model.TasaCambio, error)
}

type tasaRepo struct{ db *gorm.DB }

func NewTasaRepository(db *gorm.DB) TasaRepository { return &tasaRepo{db: db} }

func (r *tasaRepo) FindByFecha(ctx context.Context, fecha string) (*model.TasaCambio, error) {
	var t model.TasaCambio
	err := r.db.WithContext(ctx).Where("fecha = ?", fecha).First(&t).Error
	return &t, err
}

func (r *tasaRepo) Upsert(ctx context.Context, t *model.TasaCambio) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fecha"}},
		DoUpdates: clause.AssignmentColumns([]string{"tasa", "fuente", "updated_at"}),
	}).Create(t).Error
}

func (r *tasaRepo) Historial(ctx context.Context, limit int) ([]model.TasaCambio, error) {
	var tasas []model.TasaCambio
	err := r.db.WithContext(ctx).Order("fecha DESC").Limit(limit).Find(&tasas).Error
	return tasas, err
}
