package reporters

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/samvad-hq/portal-fetch/internal/domain"
)

func TestGCPPubSubSenderPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "fetches"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	rep, err := newPubSubReporter(ctx, ReporterConfig{
		ID:     "gcp",
		Type:   TypePubSub,
		PubSub: &GCPQueueConfig{ProjectID: "test-project", Topic: "fetches"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubReporter: %v", err)
	}
	defer rep.Close()

	if rep.ID() != "gcp" || rep.Type() != TypePubSub {
		t.Fatalf("unexpected reporter identity %s/%s", rep.Type(), rep.ID())
	}

	err = rep.Send(ctx, NewEvent("portal", "VPN Portal", domain.FetchResult{TargetID: "portal", StatusCode: 200}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["target_id"]; got != "portal" {
		t.Fatalf("target_id attribute = %q", got)
	}
}
