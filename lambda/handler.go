// Package lambda runs the decision pipeline for edge events, racing it
// against the response deadline.
package lambda

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mediafold/imagegate"
)

// Executor handles one edge event at a time.  Per-event state is owned
// exclusively by that event's goroutine, so there is nothing to lock.
type Executor struct {
	engine   *imagegate.Engine
	config   *imagegate.Config
	deadline time.Duration
	logger   *zap.SugaredLogger
}

func NewExecutor(config *imagegate.Config, origin imagegate.Origin, logger *zap.SugaredLogger) *Executor {
	return &Executor{
		engine:   imagegate.NewEngine(config, origin, logger),
		config:   config,
		deadline: config.Deadline,
		logger:   logger,
	}
}

type pipelineResult struct {
	resp *imagegate.EdgeResponse
	err  error
}

// HandleEvent produces exactly one envelope per event.  The pipeline races a
// deadline timer; whichever finishes first wins, and a pipeline result that
// arrives after the timer fired is dropped through the buffered channel
// rather than delivered.
func (ex *Executor) HandleEvent(ctx context.Context, event imagegate.EdgeEvent) (*imagegate.EdgeResponse, error) {
	if len(event.Records) == 0 {
		return nil, fmt.Errorf("edge event carries no records")
	}
	record := event.Records[0].CF

	req := imagegate.ParseRequestPath(record.Request.URI)
	logctx := ex.logger.With(
		"uri", record.Request.URI,
		"profile", req.Profile,
		"key", req.ObjectKey,
	)

	then := time.Now()
	results := make(chan pipelineResult, 1)
	go func() {
		resp, err := ex.engine.Process(ctx, req, &record.Response)
		results <- pipelineResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(ex.deadline)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			logctx.Warnw("Pipeline failed",
				"error", result.err.Error(),
				"duration", time.Since(then),
			)
			return nil, result.err
		}
		logctx.Infow("Pipeline finished",
			"status", result.resp.Status,
			"duration", time.Since(then),
		)
		return result.resp, nil

	case <-timer.C:
		location := ex.config.FallbackURL(req.Profile, req.ObjectKey)
		logctx.Warnw("Deadline exceeded, redirecting to fallback",
			"deadline", ex.deadline,
			"location", location,
		)
		return imagegate.RedirectResponse(record.Response.Headers, location), nil
	}
}
