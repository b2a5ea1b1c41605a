package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-bridge/internal/auth"
	"catalog-bridge/internal/config"
	"catalog-bridge/internal/event"
	"catalog-bridge/internal/pricing"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[price-upload] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.PricingFromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	updates := pricing.SampleUpdates()
	if cfg.PayloadFile != "" {
		if updates, err = pricing.LoadUpdates(cfg.PayloadFile); err != nil {
			logger.Fatalf("failed to load pricing payload: %v", err)
		}
	}

	evCfg := config.EventsFromEnv()
	publisher, err := event.NewPublisher(evCfg.RabbitURI, evCfg.RabbitExchange, logger)
	if err != nil {
		logger.Printf("run events disabled: %v", err)
		publisher = event.NopPublisher{}
	}
	defer publisher.Close()

	httpClient := &http.Client{Timeout: cfg.Timeout}

	tokens, err := auth.NewTokenSource(auth.Encoding(cfg.TokenEncoding), cfg.BaseURL, auth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		SiteID:       cfg.SiteID,
	}, httpClient)
	if err != nil {
		logger.Fatalf("failed to init token source: %v", err)
	}

	client := pricing.NewClient(cfg.BaseURL, cfg.SiteID, tokens, httpClient, logger)

	logger.Printf("submitting %d price updates to site %s", len(updates), cfg.SiteID)

	submitted := event.PricingSubmitted{Updates: len(updates)}
	out, err := client.Send(ctx, updates)
	submitted.StatusCode = out.StatusCode
	submitted.Accepted = out.Accepted
	switch {
	case err != nil:
		// no usable answer from the pricing API
		logger.Printf("price upload aborted: %v", err)
		submitted.Error = err.Error()
	case out.Result != nil:
		logger.Printf("response: %v", out.Result)
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := publisher.PublishPricingSubmitted(pubCtx, submitted); err != nil {
		logger.Printf("failed publishing pricing event: %v", err)
	}

	logger.Println("done")
}
