package repository

import (
	"context"
	"database/sql"
	"fmt"

	"WellnessMonitorAPI/internal/models"
)

// IProfileRepository persists derived wellness profiles.
type IProfileRepository interface {
	Upsert(ctx context.Context, profile *models.WellnessProfile) error
	GetBySubject(ctx context.Context, subjectID string) (*models.WellnessProfile, error)
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert stores the latest computed profile for a subject. Profiles are
// superseded by the next computation; there is no independent delete.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.WellnessProfile) error {
	query := `
		INSERT INTO wellness_profiles (
			subject_id, wellness_score, fwi_score, spending_level, risk_level,
			engagement_score, segment, intervention_type, recommendation_count,
			computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (subject_id) DO UPDATE SET
			wellness_score = EXCLUDED.wellness_score,
			fwi_score = EXCLUDED.fwi_score,
			spending_level = EXCLUDED.spending_level,
			risk_level = EXCLUDED.risk_level,
			engagement_score = EXCLUDED.engagement_score,
			segment = EXCLUDED.segment,
			intervention_type = EXCLUDED.intervention_type,
			recommendation_count = EXCLUDED.recommendation_count,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.db.ExecContext(
		ctx, query,
		p.SubjectID,
		p.WellnessScore,
		p.FWIScore,
		p.SpendingLevel,
		p.RiskLevel,
		p.EngagementScore,
		p.Segment,
		p.InterventionType,
		p.RecommendationCount,
		p.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert wellness profile: %w", err)
	}

	return nil
}

// GetBySubject returns the last persisted profile, or ErrNotFound when the
// subject has never been computed.
func (r *ProfileRepository) GetBySubject(ctx context.Context, subjectID string) (*models.WellnessProfile, error) {
	query := `
		SELECT subject_id, wellness_score, fwi_score, spending_level, risk_level,
		       engagement_score, segment, intervention_type, recommendation_count,
		       computed_at
		FROM wellness_profiles
		WHERE subject_id = $1
	`

	p := &models.WellnessProfile{}
	err := r.db.QueryRowContext(ctx, query, subjectID).Scan(
		&p.SubjectID,
		&p.WellnessScore,
		&p.FWIScore,
		&p.SpendingLevel,
		&p.RiskLevel,
		&p.EngagementScore,
		&p.Segment,
		&p.InterventionType,
		&p.RecommendationCount,
		&p.ComputedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wellness profile: %w", err)
	}

	return p, nil
}
