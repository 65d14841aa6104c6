package service

import (
	"context"
	"testing"
	"time"

	"WellnessMonitorAPI/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveProfileIsDeterministic(t *testing.T) {
	agg := &models.SubjectAggregates{
		SubjectID:         "emp-1",
		FWIScore:          72,
		EngagementScore:   65,
		PointsBalance:     1200,
		ActiveAlertCount:  1,
		HighSeverityRatio: 0.2,
		SpendRatio:        0.6,
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := DeriveProfile(agg, now)
	second := DeriveProfile(agg, now)

	assert.Equal(t, first, second)
}

func TestDeriveProfileCrisisOverridesLowRiskScore(t *testing.T) {
	// riskScore = 75*0.4 + 5 + 3 = 38 -> low, but fwi < 30 forces crisis.
	agg := &models.SubjectAggregates{
		SubjectID:         "emp-2",
		FWIScore:          25,
		EngagementScore:   30,
		PointsBalance:     200,
		ActiveAlertCount:  1,
		HighSeverityRatio: 0.1,
	}

	p := DeriveProfile(agg, time.Now())

	assert.Equal(t, models.RiskLow, p.RiskLevel)
	assert.Equal(t, models.SegmentCrisisIntervention, p.Segment)
	assert.Equal(t, models.InterventionIntensive, p.InterventionType)
}

func TestDeriveProfileWellnessFormula(t *testing.T) {
	agg := &models.SubjectAggregates{
		FWIScore:         25,
		ActiveAlertCount: 1,
		PointsBalance:    600,
	}

	p := DeriveProfile(agg, time.Now())

	// (25 + 90 + 6) / 3
	assert.InDelta(t, 40.333, p.WellnessScore, 0.001)
}

func TestBucketRisk(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{85, models.RiskCritical},
		{80, models.RiskCritical},
		{79.9, models.RiskHigh},
		{60, models.RiskHigh},
		{40, models.RiskMedium},
		{20, models.RiskLow},
		{19.9, models.RiskMinimal},
		{0, models.RiskMinimal},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, bucketRisk(tc.score), "score %.1f", tc.score)
	}
}

func TestClassifySegmentOrdering(t *testing.T) {
	tests := []struct {
		name       string
		wellness   float64
		fwi        float64
		risk       string
		engagement float64
		want       string
	}{
		{"critical risk wins over everything", 90, 90, models.RiskCritical, 90, models.SegmentCrisisIntervention},
		{"low fwi wins over good scores", 90, 29, models.RiskMinimal, 90, models.SegmentCrisisIntervention},
		{"high risk is at_risk", 75, 60, models.RiskHigh, 75, models.SegmentAtRisk},
		{"low fwi and low engagement is at_risk", 55, 45, models.RiskMedium, 35, models.SegmentAtRisk},
		{"steady before rising for low risk", 75, 75, models.RiskLow, 75, models.SegmentSteadyPerformers},
		{"rising stars at medium risk", 75, 60, models.RiskMedium, 75, models.SegmentRisingStars},
		{"rising stars outranks champions in match order", 85, 85, models.RiskMinimal, 85, models.SegmentRisingStars},
		{"default is steady", 50, 55, models.RiskMedium, 50, models.SegmentSteadyPerformers},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifySegment(tc.wellness, tc.fwi, tc.risk, tc.engagement)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBucketSpending(t *testing.T) {
	assert.Equal(t, models.SpendingLow, bucketSpending(0.3))
	assert.Equal(t, models.SpendingModerate, bucketSpending(0.6))
	assert.Equal(t, models.SpendingHigh, bucketSpending(0.9))
	assert.Equal(t, models.SpendingExcessive, bucketSpending(1.2))
}

func TestInterventionForCrisisSplitsOnRisk(t *testing.T) {
	assert.Equal(t, models.InterventionEmergency, interventionFor(models.SegmentCrisisIntervention, models.RiskCritical))
	assert.Equal(t, models.InterventionIntensive, interventionFor(models.SegmentCrisisIntervention, models.RiskHigh))
	assert.Equal(t, models.InterventionRecognize, interventionFor(models.SegmentFinancialChampions, models.RiskMinimal))
}

func TestComputePersistsAndNotifies(t *testing.T) {
	metrics := &fakeMetrics{
		subjects: map[string]*models.SubjectAggregates{
			"emp-1": {
				SubjectID:       "emp-1",
				FWIScore:        80,
				EngagementScore: 85,
				PointsBalance:   3000,
			},
		},
	}
	profiles := newFakeProfileRepo()
	sink := &fakeSink{}

	svc := NewWellnessService(metrics, profiles, sink, testLogger())

	p, err := svc.Compute(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", p.SubjectID)

	stored, err := profiles.GetBySubject(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, p.Segment, stored.Segment)

	require.Len(t, sink.events, 1)
	assert.Equal(t, models.EventScoreUpdate, sink.events[0].Type)
	assert.Equal(t, "emp-1", sink.events[0].Payload["subject_id"])
}

func TestComputeUnknownSubject(t *testing.T) {
	svc := NewWellnessService(&fakeMetrics{subjects: map[string]*models.SubjectAggregates{}}, newFakeProfileRepo(), &fakeSink{}, testLogger())

	_, err := svc.Compute(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
