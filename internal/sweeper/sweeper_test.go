package sweeper

import (
	"context"
	"errors"
	"testing"

	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

func TestRunOnce(t *testing.T) {
	kv, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	if err := kv.Set("ratelimit:alice:london:Museum:fragment", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	// a deadline in the past makes the key sweepable immediately
	if err := kv.Expire("ratelimit:alice:london:Museum:fragment", -1); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if err := kv.Set("fragment:alice", "0"); err != nil {
		t.Fatalf("set durable: %v", err)
	}

	if err := RunOnce(kv); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if _, err := kv.Get("ratelimit:alice:london:Museum:fragment"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired key survived sweep: %v", err)
	}
	if _, err := kv.Get("fragment:alice"); err != nil {
		t.Fatalf("durable key swept: %v", err)
	}
}

func TestStartValidation(t *testing.T) {
	cancel, err := Start(context.Background(), config.SweeperConfig{Enabled: false}, nil)
	if err != nil || cancel == nil {
		t.Fatalf("disabled sweeper: %v", err)
	}
	cancel()

	if _, err := Start(context.Background(), config.SweeperConfig{
		Enabled: true,
		Cron:    "not a cron",
	}, nil); err == nil {
		t.Fatalf("invalid cron accepted")
	}
}
