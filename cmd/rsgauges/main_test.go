package main

import "testing"

func TestParseFlagsDefaultsLeaveOverridesUnset(t *testing.T) {
	overrides, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags returned error: %v", err)
	}

	if overrides.ConfigFile != "" || overrides.Port != nil || overrides.StorePath != nil ||
		overrides.Namespace != nil || overrides.WatchStore != nil || overrides.LogLevel != nil ||
		overrides.RateLimitRPS != nil || overrides.RateLimitBurst != nil {
		t.Fatalf("expected no overrides, got %+v", overrides)
	}
}

func TestParseFlagsMapsValues(t *testing.T) {
	overrides, err := parseFlags([]string{
		"--config", "service.yaml",
		"--port", "9100",
		"--store", "/srv/rsgauges.yaml",
		"--namespace", "rsgauges_test",
		"--watch", "false",
		"--log-level", "debug",
		"--rate-limit-rps", "0",
		"--rate-limit-burst", "5",
	})
	if err != nil {
		t.Fatalf("parseFlags returned error: %v", err)
	}

	if overrides.ConfigFile != "service.yaml" || *overrides.Port != "9100" || *overrides.StorePath != "/srv/rsgauges.yaml" {
		t.Fatalf("unexpected overrides: %+v", overrides)
	}
	if *overrides.Namespace != "rsgauges_test" || *overrides.WatchStore || *overrides.LogLevel != "debug" {
		t.Fatalf("unexpected overrides: %+v", overrides)
	}
	if *overrides.RateLimitRPS != 0 || *overrides.RateLimitBurst != 5 {
		t.Fatalf("unexpected rate limit overrides: %v %v", *overrides.RateLimitRPS, *overrides.RateLimitBurst)
	}
}

func TestParseFlagsRejectsInvalidValues(t *testing.T) {
	for _, args := range [][]string{
		{"--watch", "sometimes"},
		{"--log-level", "chatty"},
		{"--unknown-flag"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}
