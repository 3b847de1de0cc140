package main

import (
	"context"
	"errors"
	"net"

	"vboard/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: pass the acting user with --user.")
		case "forbidden":
			lines = append(lines, "hint: only the post owner can change it; check --user.")
		case "resource_exhausted":
			lines = append(lines, "hint: too many attempts; wait a few minutes and retry.")
		case "not_found":
			lines = append(lines, "hint: the post may have been deleted; check the id.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify VBOARD_API_URL points to a vboard server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase VBOARD_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a vboard server is running at VBOARD_API_URL.",
			"hint: start local server manually with: vboard srv",
		)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
