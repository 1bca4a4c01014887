package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"

	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/server"
	"github.com/mailpress/mailpress/services"
)

func main() {
	app := &cli.App{
		Name:  "mailpress",
		Usage: "turn mailed photos and videos into site posts",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "fetch new mail, ingest posts, curate media, publish",
				Action: runOnce,
			},
			{
				Name:   "daemon",
				Usage:  "run scheduled ingestion with a status API",
				Action: runDaemon,
			},
			{
				Name:   "curate",
				Usage:  "bring the media directory to canonical form",
				Action: runCurate,
			},
			{
				Name:      "rotate",
				Usage:     "rotate all media files sharing a basename",
				ArgsUsage: "<basename>",
				Action:    runRotate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *services.Services, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, _, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("tracer initialization failed: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)

	return cfg, services.InitServices(cfg, appLogger), nil
}

func runOnce(c *cli.Context) error {
	_, svcs, err := setup()
	if err != nil {
		return err
	}

	report, err := svcs.PipelineService.Run(context.Background())
	if err != nil {
		return err
	}

	if report.NothingToDo {
		fmt.Println("nothing to do")
		return nil
	}
	fmt.Printf("ingested %d posts (%d fetched, %d skipped)\n",
		report.Ingested, report.Fetched, len(report.Skipped))
	if report.Curation != nil {
		for _, failure := range report.Curation.Failures {
			fmt.Printf("curation failed: %s at %s: %s\n", failure.File, failure.Stage, failure.Error)
		}
	}
	return nil
}

func runDaemon(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	return srv.Run()
}

func runCurate(c *cli.Context) error {
	cfg, svcs, err := setup()
	if err != nil {
		return err
	}

	report, err := svcs.CuratorService.CurateDirectory(context.Background(), cfg.SiteConfig.MediaPath)
	if err != nil {
		return err
	}
	fmt.Printf("curated %d videos, %d external invocations, %d failures\n",
		report.Videos, report.Invocations, len(report.Failures))
	return nil
}

func runRotate(c *cli.Context) error {
	basename := c.Args().First()
	if basename == "" {
		return cli.Exit("usage: mailpress rotate <basename>", 1)
	}

	cfg, svcs, err := setup()
	if err != nil {
		return err
	}

	return svcs.CuratorService.RotateBasename(context.Background(), cfg.SiteConfig.MediaPath, basename)
}
