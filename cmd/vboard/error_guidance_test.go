package main

import (
	"context"
	"fmt"
	"net"
	"testing"

	"vboard/internal/api"
)

func TestFormatCLIError_NetworkGuidance(t *testing.T) {
	err := &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure a vboard server is running at VBOARD_API_URL.") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: start local server manually with: vboard srv") {
		t.Fatalf("expected manual-start guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIGuidance(t *testing.T) {
	cases := []struct {
		name string
		err  *api.APIError
		hint string
	}{
		{"unknown service", &api.APIError{Status: 404, Message: "api error: 404"}, "hint: verify VBOARD_API_URL points to a vboard server."},
		{"forbidden", &api.APIError{Status: 403, Code: "forbidden", Message: "not authorized"}, "hint: only the post owner can change it; check --user."},
		{"missing identity", &api.APIError{Status: 401, Code: "unauthorized", Message: "user identity required"}, "hint: pass the acting user with --user."},
		{"missing post", &api.APIError{Status: 404, Code: "not_found", Message: "post not found"}, "hint: the post may have been deleted; check the id."},
		{"internal", &api.APIError{Status: 500, Code: "internal", Message: "internal error"}, "hint: server returned an internal error; check server logs for details."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines := formatCLIError(fmt.Errorf("request: %w", tc.err))
			if !containsLine(lines, tc.hint) {
				t.Fatalf("expected %q, got %v", tc.hint, lines)
			}
		})
	}
}

func TestFormatCLIError_Timeout(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("ping: %w", context.DeadlineExceeded))
	if len(lines) != 2 || lines[1] != "hint: request timed out; check server health or increase VBOARD_HTTP_TIMEOUT." {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestUniqueLines(t *testing.T) {
	got := uniqueLines([]string{"a", "", "b", "a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected lines %v", got)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
