package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// RateRepository reads the externally-maintained rate lookup tables: package
// amounts and the lateness tier table.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository constructs the repository.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ListPackages returns all configured packages.
func (r *RateRepository) ListPackages(ctx context.Context) ([]models.Package, error) {
	const query = `SELECT name, lateness_base, absence_base, monthly_rate, updated_at FROM packages ORDER BY name ASC`
	var packages []models.Package
	if err := r.db.SelectContext(ctx, &packages, query); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

// ListLatenessTiers returns the tier table ordered by tier number.
func (r *RateRepository) ListLatenessTiers(ctx context.Context) ([]models.LatenessTier, error) {
	const query = `SELECT tier_no, start_minute, end_minute, percent, excused_minutes FROM lateness_tiers ORDER BY tier_no ASC`
	var tiers []models.LatenessTier
	if err := r.db.SelectContext(ctx, &tiers, query); err != nil {
		return nil, fmt.Errorf("list lateness tiers: %w", err)
	}
	return tiers, nil
}
