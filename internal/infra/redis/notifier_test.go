package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/model"
)

func setupMiniredis(t *testing.T) *redClient {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cli, err := NewClient(context.Background(), &config.RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestResultNotifier_DeliversIDsPerWorkType(t *testing.T) {
	cli := setupMiniredis(t)
	nop := zerolog.Nop()
	n := NewResultNotifier(cli, "plant-advisor:results", &nop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chat, err := n.Subscribe(ctx, model.WorkTypeChat)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := n.Notify(ctx, model.WorkTypeDisease, "d-1"); err != nil {
		t.Fatalf("notify disease: %v", err)
	}
	if err := n.Notify(ctx, model.WorkTypeChat, "c-1"); err != nil {
		t.Fatalf("notify chat: %v", err)
	}

	select {
	case id := <-chat:
		if id != "c-1" {
			t.Fatalf("got %q, want c-1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no notification received")
	}
}

func TestResultNotifier_ChannelClosesOnCancel(t *testing.T) {
	cli := setupMiniredis(t)
	nop := zerolog.Nop()
	n := NewResultNotifier(cli, "results", &nop)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := n.Subscribe(ctx, model.WorkTypeDisease)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}

func TestNewClient_PlainAddress(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	cli, err := NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	if err != nil {
		t.Fatalf("connect with host:port: %v", err)
	}
	defer cli.Close()
	if err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
