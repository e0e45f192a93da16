package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/cihooks/postbuild/pkg/events"
	"github.com/cihooks/postbuild/pkg/mocks"
	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/processor"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func testBuildContext() *models.BuildContext {
	return &models.BuildContext{
		JobName:     "nightly",
		BuildNumber: 12,
		Result:      models.ResultFailure,
		Workspace:   "/workspace/nightly",
	}
}

func TestPublishRunStarted(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "run-1", mock.MatchedBy(func(event events.RunStarted) bool {
		return event.RunID == "run-1" &&
			event.JobName == "nightly" &&
			event.BuildNumber == 12 &&
			event.BuildResult == models.ResultFailure
	})).Return(nil)

	publishRunStarted(context.Background(), testLogger(), bus, "run-1", testBuildContext())

	bus.AssertExpectations(t)
}

func TestPublishRunStarted_NilBus(t *testing.T) {
	publishRunStarted(context.Background(), testLogger(), nil, "run-1", testBuildContext())
}

func TestPublishRunFinished(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "run-1", mock.MatchedBy(func(event events.RunFinished) bool {
		return event.RunID == "run-1" &&
			!event.Succeeded &&
			event.FinalResult == models.ResultFailure &&
			event.Error == "boom" &&
			event.Duration == 3*time.Second
	})).Return(nil)

	outcome := processor.Outcome{
		Succeeded:   false,
		FinalResult: models.ResultFailure,
		Error:       "boom",
	}

	publishRunFinished(context.Background(), testLogger(), bus, "run-1", testBuildContext(), outcome, 3*time.Second)

	bus.AssertExpectations(t)
}

func TestPublishRunFinished_PublishErrorIsTolerated(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "run-1", mock.AnythingOfType("events.RunFinished")).
		Return(errors.New("broker unavailable"))

	outcome := processor.Outcome{Succeeded: true}

	publishRunFinished(context.Background(), testLogger(), bus, "run-1", testBuildContext(), outcome, time.Second)

	bus.AssertExpectations(t)
}

func TestRecordRun(t *testing.T) {
	startedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(90 * time.Second)

	store := &mocks.MockPersistence{}
	store.On("SaveRun", mock.Anything, mock.MatchedBy(func(record *models.RunRecord) bool {
		return record.ID == "run-1" &&
			record.JobName == "nightly" &&
			record.BuildNumber == 12 &&
			record.BuildResult == models.ResultFailure &&
			record.FinalResult == models.ResultUnstable &&
			record.Succeeded &&
			record.StartedAt.Equal(startedAt) &&
			record.FinishedAt.Equal(finishedAt)
	})).Return(nil)

	outcome := processor.Outcome{
		Succeeded:   true,
		FinalResult: models.ResultUnstable,
	}

	recordRun(context.Background(), testLogger(), store, "run-1", testBuildContext(), outcome, startedAt, finishedAt)

	store.AssertExpectations(t)
}

func TestRecordRun_NilStore(t *testing.T) {
	outcome := processor.Outcome{Succeeded: true}

	recordRun(context.Background(), testLogger(), nil, "run-1", testBuildContext(), outcome, time.Now(), time.Now())
}

func TestRecordRun_SaveErrorIsTolerated(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("SaveRun", mock.Anything, mock.AnythingOfType("*models.RunRecord")).
		Return(errors.New("database unavailable"))

	outcome := processor.Outcome{Succeeded: true}

	recordRun(context.Background(), testLogger(), store, "run-1", testBuildContext(), outcome, time.Now(), time.Now())

	store.AssertExpectations(t)
}
