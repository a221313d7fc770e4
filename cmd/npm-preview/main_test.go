package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"

	"github.com/holon-run/npm-preview/pkg/github"
)

func TestReportFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{"plain error", errors.New("boom"), false},
		{"not found", &github.APIError{StatusCode: http.StatusNotFound}, false},
		{"rate limited", fmt.Errorf("resolve: %w", &github.APIError{StatusCode: http.StatusForbidden, RateLimited: true}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportFailure(&buf, fang.Styles{}, tt.err)

			out := buf.String()
			if !strings.Contains(out, "Process failed:") || !strings.Contains(out, tt.err.Error()) {
				t.Errorf("reportFailure() = %q, want failure line with %q", out, tt.err.Error())
			}
			if got := strings.Contains(out, "GITHUB_TOKEN"); got != tt.wantHint {
				t.Errorf("token hint = %v, want %v (output %q)", got, tt.wantHint, out)
			}
		})
	}
}
