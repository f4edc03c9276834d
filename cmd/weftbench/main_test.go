package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestFormatSeconds(t *testing.T) {
	got := formatSeconds(1500 * time.Millisecond)
	want := "1.50000000"
	if got != want {
		t.Errorf("formatSeconds() = %q, want %q", got, want)
	}
}

func TestResolveClientConfigFlagOverrides(t *testing.T) {
	flagHost = ""
	flagPort = 0
	flagPoolSize = 0
	flagURI = ""
	flagConfigFile = ""

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	flagHost = "10.0.0.9"
	flagPort = 12345
	flagPoolSize = 16

	cc, err := resolveClientConfig(flags)
	if err != nil {
		t.Fatalf("resolveClientConfig() error = %v", err)
	}
	if cc.Host != "10.0.0.9" {
		t.Errorf("Host = %q, want %q", cc.Host, "10.0.0.9")
	}
	if cc.Port != 12345 {
		t.Errorf("Port = %d, want %d", cc.Port, 12345)
	}
	if cc.PoolSize != 16 {
		t.Errorf("PoolSize = %d, want %d", cc.PoolSize, 16)
	}
}

func TestResolveClientConfigURIOverridesHostPort(t *testing.T) {
	flagHost = ""
	flagPort = 0
	flagPoolSize = 0
	flagConfigFile = ""
	flagURI = "tcp://192.168.1.5:9999"

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cc, err := resolveClientConfig(flags)
	if err != nil {
		t.Fatalf("resolveClientConfig() error = %v", err)
	}
	if cc.Host != "192.168.1.5" {
		t.Errorf("Host = %q, want %q", cc.Host, "192.168.1.5")
	}
	if cc.Port != 9999 {
		t.Errorf("Port = %d, want %d", cc.Port, 9999)
	}

	flagURI = ""
}
