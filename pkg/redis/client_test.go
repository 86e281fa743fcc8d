package redis

import (
	"testing"

	"github.com/calderalogistics/loadpilot-backend/pkg/config"
)

func TestLockKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.LockKey("risk-sweep"); got != "lp:cron_lock:risk-sweep" {
		t.Fatalf("unexpected lock key %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
}
