package config

import "testing"

func TestChatWSURLDerivedFromAPIBase(t *testing.T) {
	c := Default()
	c.APIBase = "https://matcha.example.com"
	c.Token = "a b" // must be query-escaped
	got := c.ChatWSURL()
	want := "wss://matcha.example.com/api/v1/ws/chat?token=a+b"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestChatWSURLExplicitWSBase(t *testing.T) {
	c := Default()
	c.WSBase = "ws://127.0.0.1:9000/"
	c.Token = "tok"
	if got := c.ChatWSURL(); got != "ws://127.0.0.1:9000/api/v1/ws/chat?token=tok" {
		t.Fatalf("got %q", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MATCHA_API_URL", "http://api.local")
	t.Setenv("MATCHA_TOKEN", "tok")
	c := FromEnv()
	if c.APIBase != "http://api.local" || c.Token != "tok" {
		t.Fatalf("config = %+v", c)
	}
}
