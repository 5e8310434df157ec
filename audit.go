package tubeAuth

import (
	"io"

	internalaudit "github.com/MrEthical07/tubeAuth/internal/audit"
	"go.uber.org/zap"
)

// NewChannelSink returns a sink that buffers events in a channel.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewKafkaSink returns a sink publishing events to Kafka. Publish errors are
// logged on logger and never reach the caller.
func NewKafkaSink(cfg KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	return internalaudit.NewKafkaSink(cfg, logger)
}
