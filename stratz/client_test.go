package stratz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	appconfig "darkseer/config"
)

func testConfig(url string) *appconfig.Config {
	cfg := &appconfig.Config{}
	cfg.Darkseer.Name = "darkseer"
	cfg.Darkseer.Version = "test"
	cfg.Stratz.URL = url
	cfg.Stratz.BatchSize = 10
	cfg.Stratz.RateLimit = appconfig.RateLimitConfig{
		HourTokens:        300,
		HourTokensAuthed:  500,
		MinuteTokens:      150,
		RequestsPerSecond: 1000,
		BurstSize:         1000,
	}
	cfg.Stratz.Retry = appconfig.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
	return cfg
}

func TestClientRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data": {"constants": {"heroes": [{"id": 1, "shortName": "antimage", "displayName": "Anti-Mage"}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	heroes, err := c.Heroes(context.Background())
	if err != nil {
		t.Fatalf("Heroes: %v", err)
	}
	if len(heroes) != 1 || heroes[0].ShortName != "antimage" {
		t.Fatalf("unexpected heroes: %+v", heroes)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClientRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Heroes(context.Background())

	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if exhausted.Last == nil {
		t.Errorf("expected wrapped cause")
	}
}

func TestClientDoesNotRetryRejectedQueries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if _, err := c.Heroes(context.Background()); err == nil {
		t.Fatalf("expected error for rejected query")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestClientHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": {"constants": {"heroes": []}}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	start := time.Now()
	if _, err := c.Heroes(context.Background()); err != nil {
		t.Fatalf("Heroes: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("retry fired after %v, before the server-requested wait", elapsed)
	}
}

func TestClientReconcilesQuotaHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining-Hour", "50")
		w.Header().Set("X-RateLimit-Remaining-Minute", "20")
		w.Write([]byte(`{"data": {"constants": {"heroes": []}}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if _, err := c.Heroes(context.Background()); err != nil {
		t.Fatalf("Heroes: %v", err)
	}

	// Local accounting drops to the server view, less the safety margin
	// on the hourly budget.
	if got := c.hour.Tokens(); got != 40 {
		t.Errorf("hour bucket: expected 40 tokens, got %v", got)
	}
	if got := c.minute.Tokens(); got != 20 {
		t.Errorf("minute bucket: expected 20 tokens, got %v", got)
	}
}

func TestClientElevatedQuotaWithToken(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Stratz.BearerToken = "secret"
	c := NewClient(cfg)
	if got := c.hour.Tokens(); got != 500 {
		t.Errorf("expected authed hourly quota of 500, got %v", got)
	}
}

func TestClientSendsAuthAndUserAgent(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"data": {"constants": {"heroes": []}}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Stratz.BearerToken = "secret"
	c := NewClient(cfg)
	if _, err := c.Heroes(context.Background()); err != nil {
		t.Fatalf("Heroes: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotAgent != "darkseer/test (+github: dark-seer)" {
		t.Errorf("unexpected User-Agent header %q", gotAgent)
	}
}

func TestClientSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "Cannot query field \"nope\""}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Heroes(context.Background())
	if err == nil {
		t.Fatalf("expected error from GraphQL error envelope")
	}
}

func TestTeamsDecodesCreatedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"teams": [{"id": 8599101, "name": "Gaimin Gladiators", "tag": "GG", "dateCreated": 1600000000}]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	teams, err := c.Teams(context.Background(), []int64{8599101})
	if err != nil {
		t.Fatalf("Teams: %v", err)
	}
	if len(teams) != 1 || teams[0].TeamTag != "GG" {
		t.Fatalf("unexpected teams: %+v", teams)
	}
	if teams[0].Created == nil || teams[0].Created.Unix() != 1600000000 {
		t.Errorf("created date not decoded: %+v", teams[0].Created)
	}
}

func TestMatchesDecodesNestedTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"matches": [{
			"id": 7000000001,
			"replaySalt": 1234,
			"gameVersionId": 169,
			"startDateTime": 1700000000,
			"isStats": true,
			"didRadiantWin": true,
			"durationSeconds": 2400,
			"regionId": 5,
			"lobbyType": 1,
			"gameMode": 2,
			"players": [{"heroId": 1, "playerSlot": 0, "steamAccountId": 42}],
			"stats": {"pickBans": [{"isPick": true, "heroId": 1, "wasBannedSuccessfully": false, "playerIndex": 0, "order": 0}]}
		}]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	matches, err := c.Matches(context.Background(), []int64{7000000001})
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}

	m := matches[0]
	if m.ID != 7000000001 {
		t.Errorf("unexpected match id %d", m.ID)
	}
	if m.ReplaySalt == nil || *m.ReplaySalt != 1234 {
		t.Errorf("replay salt not decoded: %v", m.ReplaySalt)
	}
	if len(m.Players) != 1 || m.Players[0].HeroID != 1 {
		t.Errorf("players not decoded: %+v", m.Players)
	}
	if m.Stats == nil || len(m.Stats.PickBans) != 1 || !m.Stats.PickBans[0].IsPick {
		t.Errorf("pick bans not decoded: %+v", m.Stats)
	}
}
