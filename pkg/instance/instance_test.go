package instance

import "testing"

func TestIDPrefersExplicitInstance(t *testing.T) {
	t.Setenv("FARMACIA_INSTANCE_ID", "pos-api-2")
	t.Setenv("HOSTNAME", "container-abc")
	if got := ID(); got != "pos-api-2" {
		t.Fatalf("expected explicit instance id, got %q", got)
	}
}

func TestIDFallsBackToHostname(t *testing.T) {
	t.Setenv("FARMACIA_INSTANCE_ID", "")
	t.Setenv("HOSTNAME", "container-abc")
	if got := ID(); got != "container-abc" {
		t.Fatalf("expected hostname, got %q", got)
	}

	t.Setenv("HOSTNAME", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected local default, got %q", got)
	}
}
