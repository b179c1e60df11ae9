package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/pkg/logging"
)

// TemporalStarter implements ports.SurveyStarter with a Temporal client.
type TemporalStarter struct {
	Client    client.Client
	TaskQueue string
}

// StartSurvey validates the request and starts a RadialSurveyWorkflow.
// A request that already carries an ID reuses it, so redelivered queue
// messages attach to the running workflow instead of starting a second one.
func (s *TemporalStarter) StartSurvey(ctx context.Context, req domain.SurveyRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	id := req.ID
	if id == "" {
		id = "survey-" + uuid.NewString()
	}
	run, err := s.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: s.TaskQueue,
	}, RadialSurveyWorkflow, SurveyInput{
		SurveyID:       id,
		Posts:          req.Posts,
		Radius:         req.Radius,
		ObserverHeight: req.ObserverHeight,
	})
	if err != nil {
		return "", fmt.Errorf("start survey workflow: %w", err)
	}
	return run.GetID(), nil
}

// Ping checks the Temporal frontend for readiness probes.
func (s *TemporalStarter) Ping(ctx context.Context) error {
	_, err := s.Client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// DispatchSurveys starts a survey for every request delivered by sub.
// A starter error is returned to the subscriber, which decides on redelivery.
func DispatchSurveys(ctx context.Context, sub ports.EventSubscriber, starter ports.SurveyStarter) error {
	return sub.SubscribeSurveyRequests(ctx, func(ctx context.Context, req *domain.SurveyRequest) error {
		id, err := starter.StartSurvey(ctx, *req)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("survey started", "survey_id", id, "posts", len(req.Posts))
		return nil
	})
}
