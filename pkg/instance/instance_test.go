package instance

import "testing"

func TestGetIDPrecedence(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
	t.Setenv("HOSTNAME", "box-1")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected DYNO to win over HOSTNAME, got %q", got)
	}
	t.Setenv("WORKER_ID", "cron-2")
	if got := GetID(); got != "cron-2" {
		t.Fatalf("expected WORKER_ID, got %q", got)
	}
}
