package natsadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/terraview/internal/core/domain"
)

func TestSubjectFor(t *testing.T) {
	tests := map[string]string{
		"scan":      "terrain.scan.completed",
		"sightline": "terrain.sightline.evaluated",
		"survey":    "terrain.survey.completed",
	}
	for kind, want := range tests {
		got, err := SubjectFor(kind)
		if err != nil {
			t.Fatalf("SubjectFor(%q): %v", kind, err)
		}
		if got != want {
			t.Errorf("SubjectFor(%q) = %q, want %q", kind, got, want)
		}
	}

	if _, err := SubjectFor("profile"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestStreamCoversSubjects(t *testing.T) {
	if len(StreamConfig.Subjects) != 1 || StreamConfig.Subjects[0] != SubjectAll {
		t.Fatalf("unexpected stream subjects %v", StreamConfig.Subjects)
	}
	for _, s := range []string{SubjectScanCompleted, SubjectSightEvaluated, SubjectSurveyCompleted, SubjectSurveyRequested} {
		if len(s) < len("terrain.") || s[:len("terrain.")] != "terrain." {
			t.Errorf("subject %q outside terrain.>", s)
		}
	}
}

func TestStartSurvey_RejectsInvalidRequest(t *testing.T) {
	// Validation runs before anything is sent, so no connection is needed.
	p := &Publisher{}
	_, err := p.StartSurvey(context.Background(), domain.SurveyRequest{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	height := -5.0
	posts := []domain.SurveyPost{{Name: "north", Location: domain.GeoPoint{Lat: 59, Lng: 24}}}
	for _, req := range []domain.SurveyRequest{
		{Posts: posts, Radius: -10},
		{Posts: posts, Radius: 1e9},
		{Posts: posts, ObserverHeight: &height},
	} {
		if _, err := p.StartSurvey(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}
