// Package main runs Picta as an AWS Lambda function behind API Gateway.
package main

import (
	"context"
	"fmt"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/viper"

	"github.com/jobrunner/picta/internal/adapters/lambda"
	"github.com/jobrunner/picta/internal/app"
	"github.com/jobrunner/picta/internal/config"
)

func main() {
	// Configuration comes from PICTA_* environment variables and an
	// optional config file named by PICTA_CONFIG.
	cfg, err := config.Load(viper.New(), os.Getenv(config.EnvPrefix+"_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}

	// Lambda forwards stderr to CloudWatch.
	logger := app.NewLogger(cfg.Logging, os.Stderr)

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("initializing application", "error", err)
		os.Exit(1)
	}

	logger.Info("starting Picta lambda", "storage_type", cfg.Storage.Type)
	awslambda.Start(lambda.NewAdapter(application.Handler(), logger).Handle)
}
