package normalize

import (
	"bytes"
	"strings"
	"testing"
)

func allOn() Options {
	return Options{FixMessageID: true, ReplaceQuotedPrintable: true}
}

func TestReplaceQuotedPrintable(t *testing.T) {
	raw := []byte("From: a@example.com\r\n" +
		"Content-Type: text/quoted-printable; charset=utf-8\r\n" +
		"Subject: hello\r\n" +
		"\r\n" +
		"body line\r\n")

	out, changes, err := Message(raw, allOn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Header != "Content-Type" {
		t.Fatalf("unexpected header changed: %s", changes[0].Header)
	}
	if changes[0].Old != "text/quoted-printable; charset=utf-8" {
		t.Fatalf("old value not recorded: %q", changes[0].Old)
	}
	if !strings.Contains(string(out), "text/plain; charset=utf-8") {
		t.Fatalf("Content-Type not coerced: %q", out)
	}
	if strings.Contains(string(out), "text/quoted-printable") {
		t.Fatalf("quoted-printable still present: %q", out)
	}
	if !strings.Contains(string(out), "Subject: hello") {
		t.Fatalf("unrelated header altered: %q", out)
	}
	if !strings.HasSuffix(string(out), "body line\r\n") {
		t.Fatalf("body altered: %q", out)
	}
}

func TestFixMessageID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		fixed bool
	}{
		{name: "missing-both", value: "abc@example.com", want: "<abc@example.com>", fixed: true},
		{name: "missing-left", value: "abc@example.com>", want: "<abc@example.com>", fixed: true},
		{name: "missing-right", value: "<abc@example.com", want: "<abc@example.com>", fixed: true},
		{name: "already-delimited", value: "<abc@example.com>", want: "<abc@example.com>", fixed: false},
		{name: "empty", value: "", want: "<>", fixed: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			raw := []byte("Message-ID: " + tc.value + "\r\nSubject: s\r\n\r\nbody\r\n")
			out, changes, err := Message(raw, allOn())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.fixed {
				if len(changes) != 1 {
					t.Fatalf("expected 1 change, got %d", len(changes))
				}
				if changes[0].New != tc.want {
					t.Fatalf("got %q want %q", changes[0].New, tc.want)
				}
				if changes[0].Old != tc.value {
					t.Fatalf("old value = %q, want %q", changes[0].Old, tc.value)
				}
				if !strings.Contains(string(out), tc.want) {
					t.Fatalf("output missing fixed value: %q", out)
				}
			} else {
				if len(changes) != 0 {
					t.Fatalf("expected no changes, got %v", changes)
				}
				if !bytes.Equal(out, raw) {
					t.Fatalf("message altered without changes")
				}
			}
		})
	}
}

func TestUnparseableHeaderLeavesBytesUntouched(t *testing.T) {
	// A leading continuation line has no field to continue; the header
	// block cannot be parsed. The message must come back byte-identical so
	// the caller can still upload it.
	raw := []byte(" bogus continuation\r\nSubject: s\r\n\r\nbody\r\n")

	out, changes, err := Message(raw, allOn())
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %v", changes)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("unparseable message was altered: %q", out)
	}
}

func TestNoChangeReturnsInputBytes(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: plain\r\n\r\nbody\r\n")
	out, changes, err := Message(raw, allOn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %v", changes)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("clean message was altered")
	}
}

func TestDisabledRewrites(t *testing.T) {
	raw := []byte("Message-ID: abc\r\nContent-Type: text/quoted-printable\r\n\r\nbody\r\n")

	out, changes, err := Message(raw, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 0 || !bytes.Equal(out, raw) {
		t.Fatalf("disabled options still rewrote the message")
	}

	out, changes, err = Message(raw, Options{FixMessageID: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 1 || changes[0].Header != "Message-ID" {
		t.Fatalf("expected only Message-ID change, got %v", changes)
	}
	if !strings.Contains(string(out), "text/quoted-printable") {
		t.Fatalf("Content-Type coerced while disabled: %q", out)
	}
}

func TestRewritesAreIndependent(t *testing.T) {
	raw := []byte("Message-ID: abc\r\nContent-Type: text/quoted-printable\r\n\r\nbody\r\n")
	out, changes, err := Message(raw, allOn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if !strings.Contains(string(out), "<abc>") || !strings.Contains(string(out), "text/plain") {
		t.Fatalf("missing rewrite in output: %q", out)
	}
}

func TestDelimit(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "<>"},
		{"<", "<>"},
		{"x", "<x>"},
		{"<x>", "<x>"},
	}
	for _, tt := range tests {
		if got := delimit(tt.in); got != tt.want {
			t.Fatalf("delimit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
