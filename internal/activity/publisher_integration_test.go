//go:build integration

package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"intentgate/internal/activity"
	"intentgate/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *KafkaPublisherSuite) TestPublishKeyedByOwner() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "activity-test-" + time.Now().Format("150405.000000")
	pub, err := activity.NewKafkaPublisher(s.brokers, activity.WithTopic(topic))
	s.Require().NoError(err)
	defer pub.Close()
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1), "ensuring twice is a no-op")

	entries := []activity.Entry{
		{OwnerID: "alice.near", AgentID: "agent1.near", Timestamp: time.Unix(1, 0), Raw: `{"n":1}`},
		{OwnerID: "alice.near", AgentID: "agent1.near", Timestamp: time.Unix(2, 0), Raw: `{"n":2}`},
	}
	s.Require().NoError(pub.Publish(ctx, entries))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got []*kgo.Record
	for len(got) < len(entries) {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			got = append(got, r)
		})
	}

	s.Equal("alice.near", string(got[0].Key))
	s.Equal(`{"n":1}`, string(got[0].Value))
	s.Equal(`{"n":2}`, string(got[1].Value))
	s.Equal("agent_id", got[0].Headers[0].Key)
}
