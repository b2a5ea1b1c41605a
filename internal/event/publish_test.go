package event

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Mock AMQP channel
// -------------------------

type MockAMQPChannel struct {
	mock.Mock
}

func (m *MockAMQPChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockAMQPChannel) Close() error { return nil }

// -------------------------
// Helper
// -------------------------

func newTestPublisher(mockCh *MockAMQPChannel) *RabbitPublisher {
	return &RabbitPublisher{
		conn:     nil,
		ch:       mockCh,
		exchange: "catalog.sync",
		logger:   log.New(io.Discard, "", 0),
	}
}

// -------------------------
// Tests
// -------------------------

func TestPublishExportCompleted_PublishesCorrectly(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"catalog.sync",
			ExportCompletedKey,
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(nil).
		Once()

	err := pub.PublishExportCompleted(context.Background(), ExportCompleted{Rows: 10})
	require.NoError(t, err)

	mockCh.AssertExpectations(t)
}

func TestPublishExportCompleted_JSONBody(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	var capturedMsg amqp.Publishing

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"catalog.sync",
			ExportCompletedKey,
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(nil).
		Run(func(args mock.Arguments) {
			capturedMsg = args.Get(5).(amqp.Publishing)
		})

	err := pub.PublishExportCompleted(context.Background(), ExportCompleted{
		Output:   "out.csv",
		Rows:     1234,
		Columns:  7,
		Requests: 4,
		Reason:   "last_page",
	})
	require.NoError(t, err)

	body := string(capturedMsg.Body)

	assert.Equal(t, "application/json", capturedMsg.ContentType)
	assert.Contains(t, body, `"event":"catalog.exported"`)
	assert.Contains(t, body, `"rows":1234`)
	assert.Contains(t, body, `"reason":"last_page"`)
	assert.NotContains(t, body, `"error"`)
}

func TestPublishPricingSubmitted_RoutingKey(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	var capturedMsg amqp.Publishing

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"catalog.sync",
			PricingSubmittedKey,
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(nil).
		Run(func(args mock.Arguments) {
			capturedMsg = args.Get(5).(amqp.Publishing)
		}).
		Once()

	err := pub.PublishPricingSubmitted(context.Background(), PricingSubmitted{Updates: 2, Accepted: true})
	require.NoError(t, err)

	assert.Contains(t, string(capturedMsg.Body), `"accepted":true`)
	mockCh.AssertExpectations(t)
}

func TestPublish_ErrorBubbles(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	publishErr := errors.New("boom")

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
		).
		Return(publishErr)

	err := pub.PublishExportCompleted(context.Background(), ExportCompleted{})
	require.Error(t, err)
	require.Equal(t, publishErr, err)
}

func TestPublish_ContextCancel(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.PublishPricingSubmitted(ctx, PricingSubmitted{})
	require.Error(t, err)
	require.Equal(t, context.Canceled, err)
	mockCh.AssertNotCalled(t, "PublishWithContext")
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = NopPublisher{}
	require.NoError(t, pub.PublishExportCompleted(context.Background(), ExportCompleted{}))
	require.NoError(t, pub.PublishPricingSubmitted(context.Background(), PricingSubmitted{}))
	pub.Close()
}

func TestNewPublisher_DisabledWithoutURI(t *testing.T) {
	pub, err := NewPublisher("", "catalog.sync", nil)
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)
}
