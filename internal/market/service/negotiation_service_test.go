package service

import (
	"testing"
)

func TestParseGeneratedReplyPlainJSON(t *testing.T) {
	reply, err := parseGeneratedReply(`{"message": "We can do $2.80 per unit.", "proposedChanges": {"unitPrice": 2.80}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Message != "We can do $2.80 per unit." {
		t.Errorf("message = %q", reply.Message)
	}
	if v, ok := reply.ProposedChanges["unitPrice"]; !ok || v.(float64) != 2.80 {
		t.Errorf("proposedChanges = %v", reply.ProposedChanges)
	}
}

func TestParseGeneratedReplyMarkdownFence(t *testing.T) {
	text := "```json\n{\"message\": \"Deal.\", \"proposedChanges\": {}}\n```"
	reply, err := parseGeneratedReply(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Message != "Deal." {
		t.Errorf("message = %q", reply.Message)
	}
	if len(reply.ProposedChanges) != 0 {
		t.Errorf("expected empty changes, got %v", reply.ProposedChanges)
	}
}

func TestParseGeneratedReplyBareFence(t *testing.T) {
	text := "```\n{\"message\": \"ok\"}\n```"
	reply, err := parseGeneratedReply(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Message != "ok" {
		t.Errorf("message = %q", reply.Message)
	}
}

func TestParseGeneratedReplyGarbage(t *testing.T) {
	if _, err := parseGeneratedReply("I think we should lower the price a bit."); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestParseGeneratedReplyMissingMessage(t *testing.T) {
	if _, err := parseGeneratedReply(`{"proposedChanges": {"totalPrice": 900}}`); err == nil {
		t.Error("expected error when message field is absent")
	}
}
