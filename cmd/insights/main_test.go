package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/profile-insights/internal/config"
)

type upstream struct {
	healthStatus string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)

	switch {
	case r.URL.Path == "/health":
		status := u.healthStatus
		if status == "" {
			status = "healthy"
		}
		_ = enc.Encode(map[string]string{"status": status})

	case strings.HasPrefix(r.URL.Path, "/api/v1/analytics/profile/"):
		username := strings.TrimPrefix(r.URL.Path, "/api/v1/analytics/profile/")
		if username == "ghost" {
			_ = enc.Encode(map[string]interface{}{"success": false, "error": "User not found"})
			return
		}
		_ = enc.Encode(map[string]interface{}{"success": true, "data": payload(username)})

	case r.URL.Path == "/api/v1/analytics/compare":
		var req struct {
			Usernames []string `json:"usernames"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		entries := make([]map[string]interface{}, 0, len(req.Usernames))
		for _, name := range req.Usernames {
			if name == "ghost" {
				entries = append(entries, map[string]interface{}{"username": name, "success": false, "error": "User not found"})
				continue
			}
			entries = append(entries, map[string]interface{}{"username": name, "success": true, "data": payload(name)})
		}
		_ = enc.Encode(map[string]interface{}{"success": true, "comparisons": entries})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func payload(username string) map[string]interface{} {
	return map[string]interface{}{
		"username":    username,
		"followers":   1500,
		"total_stars": 30,
		"repo_count":  2,
		"repository_analysis": []map[string]interface{}{
			{"name": "api", "language": "Go", "stars": 20, "forks": 2},
			{"name": "site", "language": "JavaScript", "stars": 10, "forks": 9},
		},
		"activity_score":    60,
		"community_impact":  15,
		"skill_level":       "advanced",
		"primary_languages": []string{"Go"},
	}
}

// run executes the CLI in-process and returns stdout, stderr and the exit code
func run(t *testing.T, u *upstream, args ...string) (string, string, int) {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Analytics: config.AnalyticsConfig{
		BaseURL:   srv.URL,
		APIPrefix: "/api/v1",
		Timeout:   5 * time.Second,
	}}

	var stdout, stderr bytes.Buffer
	app := newApp(cfg, &stdout, &stderr)
	err := app.Run(append([]string{"insights"}, args...))

	code := 0
	if err != nil {
		code = exitCode(err)
		stderr.WriteString(err.Error())
	}
	return stdout.String(), stderr.String(), code
}

func TestProfileCommand(t *testing.T) {
	out, _, code := run(t, &upstream{}, "profile", "octocat")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "Advanced")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "api")
	assert.Contains(t, out, "site")
}

func TestProfileCommand_FiltersAndJSON(t *testing.T) {
	out, _, code := run(t, &upstream{}, "profile", "--json", "--language", "Go", "--sort", "forks", "octocat")
	require.Equal(t, 0, code)

	var doc struct {
		Repositories []struct {
			Name string `json:"name"`
		} `json:"repositories"`
		LanguageOptions []string `json:"language_options"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Repositories, 1)
	assert.Equal(t, "api", doc.Repositories[0].Name)
	assert.Equal(t, []string{"all", "Go", "JavaScript"}, doc.LanguageOptions)
}

func TestProfileCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    int
		message string
	}{
		{"missing username", []string{"profile"}, exitValidation, "exactly one username"},
		{"blank username", []string{"profile", "  "}, exitValidation, "must not be blank"},
		{"bad sort", []string{"profile", "--sort", "size", "octocat"}, exitValidation, "unknown sort key"},
		{"unknown user", []string{"profile", "ghost"}, exitFailure, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := run(t, &upstream{}, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, errOut, tt.message)
		})
	}
}

func TestCompareCommand(t *testing.T) {
	for _, mode := range []string{"batch", "independent"} {
		t.Run(mode, func(t *testing.T) {
			args := []string{"compare", "--json"}
			if mode == "independent" {
				args = append(args, "--independent")
			}
			out, _, code := run(t, &upstream{}, append(args, "alice", "ghost", "bob")...)
			require.Equal(t, 0, code)

			var doc struct {
				Comparisons []struct {
					Username string `json:"username"`
					Success  bool   `json:"success"`
					Error    string `json:"error"`
				} `json:"comparisons"`
				Chart struct {
					Labels []string `json:"labels"`
				} `json:"chart"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &doc))
			require.Len(t, doc.Comparisons, 3)
			assert.Equal(t, "alice", doc.Comparisons[0].Username)
			assert.False(t, doc.Comparisons[1].Success)
			assert.Contains(t, doc.Comparisons[1].Error, "User not found")
			assert.Equal(t, []string{"alice", "bob"}, doc.Chart.Labels)
		})
	}
}

func TestCompareCommand_Errors(t *testing.T) {
	_, errOut, code := run(t, &upstream{}, "compare", "alice")
	assert.Equal(t, exitValidation, code)
	assert.NotEmpty(t, errOut)

	out, errOut, code := run(t, &upstream{}, "compare", "ghost", "ghost")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "ghost")
	assert.Contains(t, errOut, "no profile could be compared")
}

func TestHealthCommand(t *testing.T) {
	out, _, code := run(t, &upstream{}, "health")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "healthy")

	out, errOut, code := run(t, &upstream{healthStatus: "degraded"}, "health")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "degraded")
	assert.Contains(t, errOut, "analytics service is degraded")
}

func TestHealthCommand_Unreachable(t *testing.T) {
	cfg := &config.Config{Analytics: config.AnalyticsConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	}}

	var stdout, stderr bytes.Buffer
	err := newApp(cfg, &stdout, &stderr).Run([]string{"insights", "health"})
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 3, exitCode(cli.Exit("x", 3)))
	assert.Equal(t, 1, exitCode(assert.AnError))
}
