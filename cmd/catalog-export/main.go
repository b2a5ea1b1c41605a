package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-bridge/internal/catalog"
	"catalog-bridge/internal/config"
	"catalog-bridge/internal/event"
	"catalog-bridge/internal/export"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[catalog-export] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.CatalogFromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	evCfg := config.EventsFromEnv()
	publisher, err := event.NewPublisher(evCfg.RabbitURI, evCfg.RabbitExchange, logger)
	if err != nil {
		logger.Printf("run events disabled: %v", err)
		publisher = event.NopPublisher{}
	}
	defer publisher.Close()

	httpClient := &http.Client{Timeout: cfg.Timeout}
	pages := catalog.NewHTTPClient(cfg.BaseURL, cfg.QueryID, cfg.BearerToken, httpClient)
	svc := catalog.NewService(pages, cfg.PageSize, logger)

	logger.Printf("starting full catalog export: query %s, limit per page %d", cfg.QueryID, cfg.PageSize)

	res := svc.FetchAll(ctx)
	logger.Printf("fetch stopped (%s) after %d requests with %d products", res.Reason, res.Requests, len(res.Items))

	completed := event.ExportCompleted{
		Requests: res.Requests,
		Reason:   string(res.Reason),
	}
	if res.Err != nil {
		completed.Error = res.Err.Error()
	}

	logger.Println("exporting to CSV...")
	sum, err := export.WriteCSV(cfg.OutputFile, res.Items, export.DefaultPriority)
	switch {
	case errors.Is(err, export.ErrNoItems):
		logger.Println("no products were fetched, export aborted")
	case err != nil:
		logger.Printf("export failed: %v", err)
		completed.Error = err.Error()
	default:
		logger.Printf("%d products saved to %s (%d columns)", sum.Rows, sum.Path, len(sum.Columns))
		completed.Output = sum.Path
		completed.Rows = sum.Rows
		completed.Columns = len(sum.Columns)
	}

	// Publish even if the run was interrupted
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := publisher.PublishExportCompleted(pubCtx, completed); err != nil {
		logger.Printf("failed publishing export event: %v", err)
	}

	logger.Println("done")
}
