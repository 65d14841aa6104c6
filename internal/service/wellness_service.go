package service

import (
	"context"
	"fmt"
	"time"

	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/models"
	"WellnessMonitorAPI/internal/repository"
	"WellnessMonitorAPI/internal/websocket"
)

// SubjectEventSink delivers per-subject events to live connections.
type SubjectEventSink interface {
	SendToSubject(subjectID string, event models.Event) websocket.DeliveryReport
}

// IWellnessService computes and serves per-subject wellness profiles.
type IWellnessService interface {
	Compute(ctx context.Context, subjectID string) (*models.WellnessProfile, error)
	DepartmentRollup(ctx context.Context, departmentID string) (*models.DepartmentRollup, error)
}

type WellnessService struct {
	metrics  repository.IMetricsRepository
	profiles repository.IProfileRepository
	events   SubjectEventSink
	log      *logger.Logger
}

func NewWellnessService(metrics repository.IMetricsRepository, profiles repository.IProfileRepository, events SubjectEventSink, log *logger.Logger) *WellnessService {
	return &WellnessService{
		metrics:  metrics,
		profiles: profiles,
		events:   events,
		log:      log,
	}
}

// Compute recomputes the subject's profile from current aggregates, persists
// it via idempotent upsert and pushes a score-update to the subject's live
// connections. Profiles are recomputed on every read; the upsert supersedes
// the previous snapshot.
func (s *WellnessService) Compute(ctx context.Context, subjectID string) (*models.WellnessProfile, error) {
	agg, err := s.metrics.SubjectAggregates(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregates for subject %s: %w", subjectID, err)
	}

	profile := DeriveProfile(agg, time.Now())

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to persist profile for subject %s: %w", subjectID, err)
	}

	if s.events != nil {
		s.events.SendToSubject(subjectID, models.Event{
			Type: models.EventScoreUpdate,
			Payload: map[string]interface{}{
				"subject_id":     profile.SubjectID,
				"wellness_score": profile.WellnessScore,
				"risk_level":     profile.RiskLevel,
				"segment":        profile.Segment,
			},
		})
	}

	return profile, nil
}

func (s *WellnessService) DepartmentRollup(ctx context.Context, departmentID string) (*models.DepartmentRollup, error) {
	return s.metrics.DepartmentRollup(ctx, departmentID)
}

// DeriveProfile is the pure classification function: raw aggregates in,
// derived snapshot out. Identical inputs always yield an identical profile.
func DeriveProfile(agg *models.SubjectAggregates, now time.Time) *models.WellnessProfile {
	wellness := (agg.FWIScore + (100 - float64(agg.ActiveAlertCount)*10) + float64(agg.PointsBalance)/100) / 3

	riskScore := (100-agg.FWIScore)*0.4 + float64(agg.ActiveAlertCount)*5 + agg.HighSeverityRatio*30
	risk := bucketRisk(riskScore)

	segment := classifySegment(wellness, agg.FWIScore, risk, agg.EngagementScore)

	return &models.WellnessProfile{
		SubjectID:           agg.SubjectID,
		WellnessScore:       wellness,
		FWIScore:            agg.FWIScore,
		SpendingLevel:       bucketSpending(agg.SpendRatio),
		RiskLevel:           risk,
		EngagementScore:     agg.EngagementScore,
		Segment:             segment,
		InterventionType:    interventionFor(segment, risk),
		RecommendationCount: recommendationCounts[segment],
		ComputedAt:          now,
	}
}

func bucketRisk(score float64) string {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 40:
		return models.RiskMedium
	case score >= 20:
		return models.RiskLow
	default:
		return models.RiskMinimal
	}
}

// classifySegment is first-match and ordered: the crisis and at-risk checks
// override the positive segments regardless of the numeric scores.
func classifySegment(wellness, fwi float64, risk string, engagement float64) string {
	switch {
	case risk == models.RiskCritical || fwi < 30:
		return models.SegmentCrisisIntervention
	case risk == models.RiskHigh || (fwi < 50 && engagement < 40):
		return models.SegmentAtRisk
	case wellness >= 60 && risk == models.RiskLow:
		return models.SegmentSteadyPerformers
	case wellness >= 70 && engagement >= 70:
		return models.SegmentRisingStars
	case wellness >= 80 && fwi >= 80 && engagement >= 80:
		return models.SegmentFinancialChampions
	default:
		return models.SegmentSteadyPerformers
	}
}

func bucketSpending(spendRatio float64) string {
	switch {
	case spendRatio < 0.5:
		return models.SpendingLow
	case spendRatio < 0.75:
		return models.SpendingModerate
	case spendRatio < 1.0:
		return models.SpendingHigh
	default:
		return models.SpendingExcessive
	}
}

func interventionFor(segment, risk string) string {
	if segment == models.SegmentCrisisIntervention {
		if risk == models.RiskCritical {
			return models.InterventionEmergency
		}
		return models.InterventionIntensive
	}
	return interventionTypes[segment]
}

var interventionTypes = map[string]string{
	models.SegmentAtRisk:             models.InterventionTargeted,
	models.SegmentSteadyPerformers:   models.InterventionMaintain,
	models.SegmentRisingStars:        models.InterventionGrowth,
	models.SegmentFinancialChampions: models.InterventionRecognize,
}

var recommendationCounts = map[string]int{
	models.SegmentCrisisIntervention: 5,
	models.SegmentAtRisk:             4,
	models.SegmentSteadyPerformers:   2,
	models.SegmentRisingStars:        2,
	models.SegmentFinancialChampions: 1,
}
