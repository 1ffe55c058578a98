// This command is the edge function entry point: it receives origin-response
// events and answers each with exactly one response envelope.
package main

import (
	"context"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/mediafold/imagegate"
	"github.com/mediafold/imagegate/lambda"
)

// Built once per container, reused across invocations.
var executor *lambda.Executor

func HandleRequest(ctx context.Context, event imagegate.EdgeEvent) (*imagegate.EdgeResponse, error) {
	return executor.HandleEvent(ctx, event)
}

func main() {
	plainLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger := plainLogger.Sugar()

	config := imagegate.DefaultConfig()
	applyEnv(config)

	origin, err := imagegate.NewS3Origin(logger)
	if err != nil {
		logger.Fatalw("Could not initialize S3 origin",
			"error", err.Error(),
		)
	}

	executor = lambda.NewExecutor(config, origin, logger)

	logger.Infow("Starting image edge handler",
		"generalBucket", config.GeneralBucket,
		"profileBucket", config.ProfileBucket,
		"fallbackHost", config.FallbackHost,
	)
	awslambda.Start(HandleRequest)
}

func applyEnv(config *imagegate.Config) {
	if v := os.Getenv("IMAGEGATE_GENERAL_BUCKET"); v != "" {
		config.GeneralBucket = v
	}
	if v := os.Getenv("IMAGEGATE_PROFILE_BUCKET"); v != "" {
		config.ProfileBucket = v
	}
	if v := os.Getenv("IMAGEGATE_FALLBACK_HOST"); v != "" {
		config.FallbackHost = v
	}
}
