package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/conferences/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	records   []Record
	published []int64
	committed bool
}

func (s *fakeStore) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *fakeStore) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func (s *fakeStore) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	s.published = append(s.published, ids...)
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublishBatch(t *testing.T) {
	store := &fakeStore{records: []Record{
		{ID: 1, EventID: "e1", AggregateID: "b1", EventType: EventBookingBooked, Payload: []byte(`{"booking_id":"b1"}`)},
		{ID: 2, EventID: "e2", AggregateID: "b2", EventType: EventBookingCancelled, Payload: []byte(`{}`)},
		{ID: 3, EventID: "e3", AggregateID: "b3", EventType: EventBookingBooked, Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{}
	p := NewPublisher(store, writer, zap.NewNop(), PublisherConfig{BatchSize: 2})

	n, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, store.published)
	assert.True(t, store.committed)

	require.Len(t, writer.msgs, 2)
	first := writer.msgs[0]
	assert.Equal(t, EventBookingBooked, first.Topic)
	assert.Equal(t, "b1", string(first.Key))
	assert.Equal(t, kafkax.EventMeta{EventID: "e1", EventType: EventBookingBooked}, kafkax.ExtractEventMeta(first))
}

func TestPublishBatch_WriteFailureKeepsRows(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: 1, EventID: "e1", AggregateID: "b1", EventType: EventBookingBooked}}}
	p := NewPublisher(store, &fakeWriter{err: errors.New("broker down")}, zap.NewNop(), PublisherConfig{})

	_, err := p.PublishBatch(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.published)
	assert.False(t, store.committed)
}

func TestPublishBatch_Empty(t *testing.T) {
	writer := &fakeWriter{}
	n, err := NewPublisher(&fakeStore{}, writer, zap.NewNop(), PublisherConfig{}).PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, writer.msgs)
}
