package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestPublishRejectsUnencodableEvent(t *testing.T) {
	p, err := NewProducer([]string{"127.0.0.1:1"})
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish(context.Background(), TopicOrderEvents, "1", map[string]any{"bad": make(chan int)})
	require.ErrorContains(t, err, "json.Marshal")
}
