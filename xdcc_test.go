package xdcc

import (
	"context"
	"testing"
)

func TestFetchValidatesArguments(t *testing.T) {
	ctx := context.Background()

	if _, err := Fetch(ctx, "", "#packs", "bot", 1); err == nil {
		t.Error("Empty server must fail before any connection is made.")
	}
	if _, err := Fetch(ctx, "irc.example.org", "#packs", "bot", 0); err == nil {
		t.Error("Pack number zero must fail before any connection is made.")
	}
}
