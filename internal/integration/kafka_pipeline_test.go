//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/adapter/kafka"
	"github.com/couchcryptid/solar-cycle-etl/internal/config"
	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/fixture"
	"github.com/couchcryptid/solar-cycle-etl/internal/observability"
	"github.com/couchcryptid/solar-cycle-etl/internal/pipeline"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// 2017-02-09 12:00 UTC.
var baseTime = time.Date(2017, time.February, 9, 12, 0, 0, 0, time.UTC)

// reportMessage holds a deserialized message read from the sink topic.
type reportMessage struct {
	Report  domain.SolarReport
	Key     string
	Headers map[string]string
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func queryPayload(t *testing.T, id string, lat, lon float64, at time.Time, tz string) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.SolarQuery{
		ID:        id,
		Latitude:  &lat,
		Longitude: &lon,
		Time:      &at,
		TimeZone:  tz,
	})
	require.NoError(t, err)
	return payload
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.SolarReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return reportMessage{
		Report:  report,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a query and its report through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload := queryPayload(t, "london", 51.50853, -0.12574, baseTime, "Europe/London")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
		Time:  baseTime,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(nil, solar.Official, metrics, discardLogger())
	report, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.SolarReport{report}))

	rm := readReport(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "london", rm.Key)
	assert.Equal(t, "day", rm.Headers["cycle"])
	_, err = time.Parse(time.RFC3339, rm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "london", rm.Report.ID)
	assert.Equal(t, solar.Day, rm.Report.Cycle)
	assert.Equal(t, solar.Occurs, rm.Report.Condition)
	assert.Equal(t, "Europe/London", rm.Report.TimeZone)

	rise, ok := rm.Report.Event(solar.Sunrise, solar.Official)
	require.True(t, ok)
	require.NotNil(t, rise.UTC)
	assert.Equal(t, int64(1486625181), rise.UTC.Unix())
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and checks every reference city's report against its
// published times.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	cities, err := fixture.Load("../solar/testdata/cities.json")
	require.NoError(t, err)
	byID := make(map[string]fixture.City, len(cities))

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(cities)+1)
	for i, city := range cities {
		id := fmt.Sprintf("city-%d", i)
		byID[id] = city
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(id),
			Value: queryPayload(t, id, city.Latitude, city.Longitude, city.Date(), ""),
			Time:  baseTime,
		})
	}
	// Longyearbyen in February: the sun stays below the horizon.
	msgs = append(msgs, kafkago.Message{
		Key:   []byte("longyearbyen"),
		Value: queryPayload(t, "longyearbyen", 78.2186, 15.64007, baseTime, "Arctic/Longyearbyen"),
		Time:  baseTime,
	})
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(nil, solar.Official, metrics, discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make([]reportMessage, 0, len(msgs))
	for len(received) < len(msgs) {
		received = append(received, readReport(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	var polar int
	for _, rm := range received {
		assert.Equal(t, rm.Report.ID, rm.Key)
		assert.Equal(t, rm.Report.Cycle.String(), rm.Headers["cycle"])
		assert.Len(t, rm.Report.Events, 2*len(solar.Zeniths))

		if rm.Key == "longyearbyen" {
			polar++
			assert.Equal(t, solar.PolarNight, rm.Report.Condition)
			assert.Equal(t, solar.Night, rm.Report.Cycle)
			assert.Zero(t, rm.Report.DayLengthSeconds)
			continue
		}

		city, ok := byID[rm.Key]
		require.True(t, ok, "unexpected key %s", rm.Key)
		assert.Equal(t, solar.Occurs, rm.Report.Condition, city.Name)

		rise, ok := rm.Report.Event(solar.Sunrise, solar.Official)
		require.True(t, ok)
		require.NotNil(t, rise.UTC, city.Name)
		assert.WithinDuration(t, city.Sunrise, *rise.UTC, fixture.Tolerance, city.Name)

		set, ok := rm.Report.Event(solar.Sunset, solar.Official)
		require.True(t, ok)
		require.NotNil(t, set.UTC, city.Name)
		assert.WithinDuration(t, city.Sunset, *set.UTC, fixture.Tolerance, city.Name)
	}
	assert.Equal(t, 1, polar)
}

// TestPipelineTransformError verifies that invalid messages (poison pills) are
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{"), Time: baseTime},
		// A place with no geocoder configured cannot be resolved.
		kafkago.Message{Key: []byte("place-only"), Value: []byte(`{"place":"Paris"}`), Time: baseTime},
		kafkago.Message{Key: []byte("out-of-range"), Value: queryPayload(t, "out-of-range", 91, 0, baseTime, ""), Time: baseTime},
		kafkago.Message{Key: []byte("good"), Value: queryPayload(t, "good", 51.50853, -0.12574, baseTime, ""), Time: baseTime},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(nil, solar.Official, metrics, discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	rm := readReport(ctx, t, consumer)
	assert.Equal(t, "good", rm.Key)
	assert.Equal(t, solar.Day, rm.Report.Cycle)

	// Verify no second message arrives (the poison pills were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
