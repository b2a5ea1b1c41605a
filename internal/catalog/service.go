package catalog

import (
	"context"
	"errors"
	"log"
	"time"
)

const (
	DefaultPageSize = 400

	// DefaultPageDelay is the pause between successful page fetches.
	DefaultPageDelay = 500 * time.Millisecond
)

type PageClient interface {
	FetchPage(ctx context.Context, offset, limit int) (Page, error)
}

// StopReason records why FetchAll ended.
type StopReason string

const (
	StopExhausted    StopReason = "exhausted"     // a page came back with no items
	StopLastPage     StopReason = "last_page"     // a page came back short
	StopTotalReached StopReason = "total_reached" // next offset is past the reported total
	StopTransport    StopReason = "transport_error"
	StopStatus       StopReason = "status_error"
	StopDecode       StopReason = "decode_error"
	StopCanceled     StopReason = "canceled"
)

// Result is what one FetchAll run collected. Items holds every item from
// every successful page, in page order, even when Err is set.
type Result struct {
	Items    []Item
	Requests int
	Total    int // 0 if the first page carried no total
	Reason   StopReason
	Err      error
}

// Failed reports whether the run ended on an error rather than running out of pages.
func (r Result) Failed() bool {
	return r.Err != nil
}

// sleepFunc is swappable so tests don't wait on the real delay.
type sleepFunc func(ctx context.Context, d time.Duration) error

type Service struct {
	client   PageClient
	pageSize int
	delay    time.Duration
	logger   *log.Logger
	sleep    sleepFunc
}

func NewService(client PageClient, pageSize int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Service{
		client:   client,
		pageSize: pageSize,
		delay:    DefaultPageDelay,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// FetchAll walks the listing one page at a time from offset zero. It never
// returns early with nothing: on any failure the items gathered so far are
// kept in the result alongside the error.
func (s *Service) FetchAll(ctx context.Context) Result {
	var res Result
	offset := 0

	for {
		s.logger.Printf("fetching offset %d (limit: %d)...", offset, s.pageSize)

		page, err := s.client.FetchPage(ctx, offset, s.pageSize)
		res.Requests++
		if err != nil {
			return s.fail(res, err)
		}

		if offset == 0 {
			s.logger.Printf("response keys: %v", page.Keys)
			if page.Total > 0 {
				res.Total = page.Total
				s.logger.Printf("total products to export: %d (estimated pages: %d)",
					page.Total, (page.Total+s.pageSize-1)/s.pageSize)
			}
		}

		if len(page.Items) == 0 {
			s.logger.Printf("no items at offset %d, response keys: %v", offset, page.Keys)
			res.Reason = StopExhausted
			return res
		}

		res.Items = append(res.Items, page.Items...)
		s.logger.Printf("fetched %d products | total collected: %d", len(page.Items), len(res.Items))

		if len(page.Items) < s.pageSize {
			s.logger.Println("last page detected (fewer than limit items)")
			res.Reason = StopLastPage
			return res
		}

		if res.Total > 0 && offset+s.pageSize >= res.Total {
			s.logger.Printf("reached total count %d", res.Total)
			res.Reason = StopTotalReached
			return res
		}

		offset += s.pageSize

		if err := s.sleep(ctx, s.delay); err != nil {
			s.logger.Printf("stopping before offset %d: %v", offset, err)
			res.Reason = StopCanceled
			res.Err = err
			return res
		}
	}
}

func (s *Service) fail(res Result, err error) Result {
	res.Err = err

	var statusErr *StatusError
	var transportErr *TransportError
	var decodeErr *DecodeError

	switch {
	case errors.As(err, &statusErr):
		s.logger.Printf("error %d: %s", statusErr.StatusCode, statusErr.Body)
		res.Reason = StopStatus
	case errors.As(err, &decodeErr):
		s.logger.Printf("undecodable response: %v", decodeErr.Err)
		res.Reason = StopDecode
	case errors.As(err, &transportErr) && transportErr.Kind == TransportCancel:
		s.logger.Printf("request canceled: %v", transportErr.Err)
		res.Reason = StopCanceled
	case errors.As(err, &transportErr):
		s.logger.Printf("request failed (%s): %v", transportErr.Kind, transportErr.Err)
		res.Reason = StopTransport
	default:
		s.logger.Printf("request failed: %v", err)
		res.Reason = StopTransport
	}

	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
