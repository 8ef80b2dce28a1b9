package stratz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"darkseer/models"
)

type fakeStore struct {
	patches     []models.GameVersion
	heroes      []models.Hero
	items       []models.Item
	tournaments []models.Tournament
	staged      []models.IncompleteMatch
}

func (f *fakeStore) WriteGameVersions(ctx context.Context, v []models.GameVersion) error {
	f.patches = v
	return nil
}

func (f *fakeStore) WriteHeroes(ctx context.Context, h []models.Hero) error {
	f.heroes = h
	return nil
}

func (f *fakeStore) WriteItems(ctx context.Context, i []models.Item) error {
	f.items = i
	return nil
}

func (f *fakeStore) WriteTournaments(ctx context.Context, t []models.Tournament) error {
	f.tournaments = t
	return nil
}

func (f *fakeStore) StagedMatches(ctx context.Context) ([]models.IncompleteMatch, error) {
	return f.staged, nil
}

// stratzStub answers each query by inspecting the bound document.
func stratzStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		switch {
		case strings.Contains(req.Query, "gameVersions"):
			fmt.Fprint(w, `{"data": {"constants": {"gameVersions": [{"id": 169, "name": "7.44", "asOfDateTime": 1700000000}]}}}`)
		case strings.Contains(req.Query, "heroes"):
			fmt.Fprint(w, `{"data": {"constants": {"heroes": [{"id": 39, "shortName": "queenofpain", "displayName": "Queen of Pain"}]}}}`)
		case strings.Contains(req.Query, "items"):
			fmt.Fprint(w, `{"data": {"constants": {"items": [{"id": 1, "shortName": "blink", "displayName": "Blink Dagger"}]}}}`)
		case strings.Contains(req.Query, "leagues(request"):
			fmt.Fprint(w, `{"data": {"leagues": [{"id": 15728, "displayName": "The International", "startDateTime": 1699000000, "endDateTime": 1701000000}]}}`)
		case strings.Contains(req.Query, "league(id:"):
			fmt.Fprint(w, `{"data": {"league": {"matches": [{"id": 100, "leagueId": 15728}]}}}`)
		case strings.Contains(req.Query, "matches(ids: [100])"):
			fmt.Fprint(w, `{"data": {"matches": [{"id": 100}]}}`)
		case strings.Contains(req.Query, "matches(ids: [200])"):
			fmt.Fprint(w, `{"data": {"matches": [{"id": 200}]}}`)
		default:
			t.Errorf("unexpected query: %s", req.Query)
			fmt.Fprint(w, `{"data": {}}`)
		}
	}))
}

func TestCollectorPass(t *testing.T) {
	srv := stratzStub(t)
	defer srv.Close()

	store := &fakeStore{
		staged: []models.IncompleteMatch{{MatchID: 200, ReplaySalt: 5}},
	}
	rawChan := make(chan models.RawMatch, 10)

	cfg := testConfig(srv.URL)
	c := NewCollector(cfg, NewClient(cfg), store, rawChan)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Stop()

	var ids []int64
	for m := range rawChan {
		ids = append(ids, m.ID)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 200 {
		t.Errorf("expected tournament match then staged match, got %v", ids)
	}

	if len(store.patches) != 1 || store.patches[0].Patch != "7.44" {
		t.Errorf("patch dimension not synced: %+v", store.patches)
	}
	if len(store.heroes) != 1 || len(store.items) != 1 {
		t.Errorf("hero/item dimensions not synced")
	}
	if len(store.tournaments) != 1 || store.tournaments[0].LeagueID != 15728 {
		t.Errorf("tournament dimension not synced: %+v", store.tournaments)
	}
}
