package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// SurveyInput is the input for the radial survey workflow.
type SurveyInput struct {
	SurveyID       string
	Posts          []domain.SurveyPost
	Radius         float64
	ObserverHeight *float64
}

// RadialSurveyWorkflow scans every observation post in parallel, then
// publishes the collected summaries. Summaries keep the order of the posts.
func RadialSurveyWorkflow(ctx workflow.Context, input SurveyInput) ([]domain.SurveySummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting radial survey", "surveyID", input.SurveyID, "posts", len(input.Posts))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	futures := make([]workflow.Future, len(input.Posts))
	for i, post := range input.Posts {
		futures[i] = workflow.ExecuteActivity(ctx, "ScanObservationPost", post, input.Radius, input.ObserverHeight)
	}

	summaries := make([]domain.SurveySummary, len(input.Posts))
	for i, f := range futures {
		if err := f.Get(ctx, &summaries[i]); err != nil {
			logger.Warn("post scan failed", "post", input.Posts[i].Name, "error", err)
			return nil, err
		}
	}

	// Publishing is best-effort; the survey result stands on its own.
	if err := workflow.ExecuteActivity(ctx, "PublishSurvey", input.SurveyID, summaries).Get(ctx, nil); err != nil {
		logger.Warn("survey publish failed", "error", err)
	}

	logger.Info("Radial survey complete", "surveyID", input.SurveyID)
	return summaries, nil
}
