package kafka

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource feeds queued messages, then queued errors, then blocks until
// the fetch context expires.
type stubSource struct {
	msgs    []kafkago.Message
	errs    []error
	commits []kafkago.Message
}

func (s *stubSource) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(s.msgs) > 0 {
		m := s.msgs[0]
		s.msgs = s.msgs[1:]
		return m, nil
	}
	if len(s.errs) > 0 {
		e := s.errs[0]
		s.errs = s.errs[1:]
		return kafkago.Message{}, e
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (s *stubSource) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	s.commits = append(s.commits, msgs...)
	return nil
}

func (s *stubSource) Close() error { return nil }

func bundleMsg(offset int64) kafkago.Message {
	return kafkago.Message{
		Key:    []byte("SBSP"),
		Value:  []byte(`{"site_id":"SBSP"}`),
		Offset: offset,
	}
}

func stubReader(src *stubSource, logOut *bytes.Buffer) *Reader {
	return &Reader{
		reader:        src,
		logger:        slog.New(slog.NewTextHandler(logOut, nil)),
		flushInterval: 50 * time.Millisecond,
	}
}

func TestExtractBatchDrainsUpToBatchSize(t *testing.T) {
	src := &stubSource{msgs: []kafkago.Message{bundleMsg(1), bundleMsg(2), bundleMsg(3)}}
	r := stubReader(src, &bytes.Buffer{})

	batch, err := r.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].Offset)
	assert.Equal(t, int64(2), batch[1].Offset)
}

func TestExtractBatchStopsAtFlushInterval(t *testing.T) {
	src := &stubSource{msgs: []kafkago.Message{bundleMsg(1)}}
	r := stubReader(src, &bytes.Buffer{})

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestExtractBatchLogsMidBatchFetchError(t *testing.T) {
	src := &stubSource{
		msgs: []kafkago.Message{bundleMsg(1)},
		errs: []error{errors.New("broker connection lost")},
	}
	var logOut bytes.Buffer
	r := stubReader(src, &logOut)

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Contains(t, logOut.String(), "fetch failed mid-batch")
	assert.Contains(t, logOut.String(), "broker connection lost")
}

func TestExtractBatchFirstFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("group rebalance in progress")
	src := &stubSource{errs: []error{fetchErr}}
	r := stubReader(src, &bytes.Buffer{})

	batch, err := r.ExtractBatch(context.Background(), 10)
	assert.ErrorIs(t, err, fetchErr)
	assert.Nil(t, batch)
}

func TestExtractBatchCommitClosure(t *testing.T) {
	src := &stubSource{msgs: []kafkago.Message{bundleMsg(7)}}
	r := stubReader(src, &bytes.Buffer{})

	batch, err := r.ExtractBatch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	require.NoError(t, batch[0].Commit(context.Background()))
	require.Len(t, src.commits, 1)
	assert.Equal(t, int64(7), src.commits[0].Offset)
}
