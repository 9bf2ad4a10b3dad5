//go:build integration

package registrar

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"epp-gateway/pkg/platform/audit"
	"epp-gateway/pkg/platform/audit/publishers/kafka"
	"epp-gateway/pkg/platform/audit/publishers/stream"
	"epp-gateway/pkg/platform/audit/worker"
	"epp-gateway/pkg/testutil"
	"epp-gateway/pkg/testutil/containers"
)

const topic = "epp.transactions.it"

func TestTransactionStreamToKafka(t *testing.T) {
	k := containers.NewKafka(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	producer, err := kafka.NewClient([]string{k.Broker}, "epp-gateway-it")
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1), "existing topic is fine")

	testutil.Given(t, "a stream publisher drained by a worker into kafka", func(t *testing.T) {
		buf := stream.NewRingBuffer(16)
		pub := stream.New(buf)
		w := worker.NewWorker(buf, kafka.NewSink(producer, topic),
			worker.WithInterval(50*time.Millisecond),
			worker.WithLogger(testLogger),
		)
		wctx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = w.Run(wctx)
		}()
		t.Cleanup(func() {
			stop()
			<-done
		})

		testutil.When(t, "two transactions are emitted", func(t *testing.T) {
			for _, cmd := range []string{"domain:create", "domain:renew"} {
				require.NoError(t, pub.Emit(ctx, audit.Prepare(audit.Event{
					Command:    cmd,
					ObjectType: "domain",
					ObjectID:   "example.com",
					ResultCode: 1000,
					Outcome:    audit.OutcomeSuccess,
				}, cmd[len("domain:"):])))
			}

			testutil.Then(t, "both arrive keyed by object in order", func(t *testing.T) {
				consumer, err := kgo.NewClient(
					kgo.SeedBrokers(k.Broker),
					kgo.ConsumeTopics(topic),
					kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
				)
				require.NoError(t, err)
				defer consumer.Close()

				var got []kafka.Payload
				for len(got) < 2 && ctx.Err() == nil {
					fetches := consumer.PollFetches(ctx)
					require.Empty(t, fetches.Errors())
					fetches.EachRecord(func(r *kgo.Record) {
						assert.Equal(t, "example.com", string(r.Key))
						var p kafka.Payload
						require.NoError(t, json.Unmarshal(r.Value, &p))
						got = append(got, p)
					})
				}
				require.Len(t, got, 2)
				assert.Equal(t, "domain:create", got[0].Command)
				assert.Equal(t, "domain:renew", got[1].Command)
				assert.Equal(t, "compliance", got[0].Category)
			})
		})
	})
}
