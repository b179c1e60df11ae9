package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/core/usecases"
)

// SurveyActivities holds the activity implementations for the radial survey workflow.
type SurveyActivities struct {
	Scanner *usecases.RadialService
	Events  ports.EventPublisher
}

// ScanObservationPost runs a radial scan from one post and condenses it.
func (a *SurveyActivities) ScanObservationPost(ctx context.Context, post domain.SurveyPost, radius float64, observerHeight *float64) (domain.SurveySummary, error) {
	vm, err := a.Scanner.Scan(ctx, domain.RadialScanRequest{
		Observer:       post.Location,
		Radius:         radius,
		ObserverHeight: observerHeight,
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		return domain.SurveySummary{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("scan post %q: %v", post.Name, err), "InvalidInput", err)
	}
	if err != nil {
		return domain.SurveySummary{}, fmt.Errorf("scan post %q: %w", post.Name, err)
	}
	return Summarize(post, vm), nil
}

// PublishSurvey announces a finished survey.
func (a *SurveyActivities) PublishSurvey(ctx context.Context, surveyID string, summaries []domain.SurveySummary) error {
	if a.Events == nil || len(summaries) == 0 {
		return nil
	}
	var total float64
	for _, s := range summaries {
		total += s.VisibleFraction
	}
	mean := total / float64(len(summaries))

	return a.Events.PublishAnalysis(ctx, &domain.AnalysisEvent{
		Kind:            "survey",
		Observer:        summaries[0].Location,
		VisibleFraction: &mean,
		SurveyID:        surveyID,
		At:              time.Now().UTC(),
	})
}

// Summarize reduces a visibility map to the bearings that are blocked.
func Summarize(post domain.SurveyPost, vm *domain.VisibilityMap) domain.SurveySummary {
	blocked := []float64{}
	for _, ray := range vm.Rays {
		if ray.FirstObstructionDistance != nil {
			blocked = append(blocked, ray.Bearing)
		}
	}
	return domain.SurveySummary{
		Name:              post.Name,
		Location:          post.Location,
		ObserverElevation: vm.ObserverElevation,
		VisibleFraction:   vm.VisibleFraction,
		BlockedBearings:   blocked,
	}
}
