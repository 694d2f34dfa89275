package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	girthindex "girthgov/contexts/ecosystem-health/girth-index-service"
	decisionengine "girthgov/contexts/governance/decision-engine"
	votingledger "girthgov/contexts/governance/voting-ledger"
	ledgerentities "girthgov/contexts/governance/voting-ledger/domain/entities"
	ledgerhttp "girthgov/contexts/governance/voting-ledger/transport/http"
	"girthgov/internal/app/pipeline"
	"girthgov/internal/platform/auth"
	"girthgov/internal/platform/coordination"
	"girthgov/internal/platform/ratelimit"
)

type testHarness struct {
	server *Server
	tokens *auth.TokenService
	votes  votingledger.Module
}

func newTestHarness(t *testing.T, limiter *ratelimit.KeyedLimiter) testHarness {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-with-enough-length", "girthgov-test")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	girth := girthindex.NewInMemoryModule(nil, nil)
	decisions := decisionengine.NewInMemoryModule(nil, nil, nil, nil)
	votes := votingledger.NewInMemoryModule(nil, nil, tokens, nil, nil)

	now := time.Now().UTC()
	votes.Store.SetNow(now)
	votes.Store.SetPoll(ledgerentities.PollSnapshot{
		PollID:        "poll-1",
		Status:        ledgerentities.PollStatusActive,
		VotingStart:   now.Add(-time.Hour),
		VotingEnd:     now.Add(47 * time.Hour),
		RewardPerVote: 10,
		OptionIDs:     []string{"opt-a", "opt-b"},
	})

	activity := decisions.RecordActivity
	runner := pipeline.NewRunner(coordination.NewMemoryLease(), nil, &activity, nil)
	pipeline.RegisterStages(runner, girth, decisions, votes, pipeline.Toggles{})

	server := New(Modules{Girth: girth, Decisions: decisions, Votes: votes}, Options{
		Admins:      tokens,
		Sessions:    tokens,
		VoteLimiter: limiter,
		Stages:      runner,
	})
	return testHarness{server: server, tokens: tokens, votes: votes}
}

func (h testHarness) issue(t *testing.T, subject string, wallet string, roles ...string) string {
	t.Helper()
	token, err := h.tokens.Issue(subject, wallet, roles, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (h testHarness) do(method string, path string, token string, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.server.mux.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := newTestHarness(t, nil)
	rr := h.do(http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	h := newTestHarness(t, nil)
	rr := h.do(http.MethodGet, "/api/v1/admin/emergency-brake", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(http.MethodGet, "/api/v1/admin/emergency-brake", "not-a-jwt", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesRejectPlayerToken(t *testing.T) {
	h := newTestHarness(t, nil)
	token := h.issue(t, "player-1", "wallet-1", auth.RolePlayer)
	rr := h.do(http.MethodPost, "/api/v1/admin/emergency-brake", token, `{"action":"engage","reason":"x","duration_hours":1}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminEngagesBrake(t *testing.T) {
	h := newTestHarness(t, nil)
	token := h.issue(t, "admin-1", "", auth.RoleAdmin)
	rr := h.do(http.MethodPost, "/api/v1/admin/emergency-brake", token, `{"action":"engage","reason":"exploit under review","duration_hours":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(http.MethodGet, "/api/v1/admin/emergency-brake", token, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"active":true`) {
		t.Fatalf("expected active brake, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminRunUnknownStageIsNotFound(t *testing.T) {
	h := newTestHarness(t, nil)
	token := h.issue(t, "admin-1", "", auth.RoleAdmin)
	rr := h.do(http.MethodPost, "/api/v1/admin/stages/nope/run", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(http.MethodPost, "/api/v1/admin/stages/"+pipeline.StageSynthesis+"/run", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVoteThenCooldownConflict(t *testing.T) {
	h := newTestHarness(t, nil)
	token := h.issue(t, "player-1", "wallet-1", auth.RolePlayer)

	rr := h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", token, `{"option_id":"opt-a"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", token, `{"option_id":"opt-b"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp ledgerhttp.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "cooldown_active" || resp.Cooldown == nil || resp.Cooldown.CanVote || resp.Cooldown.HoursRemaining != 24 {
		t.Fatalf("unexpected cooldown payload: %+v", resp)
	}

	rr = h.do(http.MethodGet, "/api/v1/polls/poll-1/cooldown", token, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"can_vote":false`) {
		t.Fatalf("expected cooldown active, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVoteRequiresSession(t *testing.T) {
	h := newTestHarness(t, nil)
	rr := h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", "", `{"option_id":"opt-a"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVoteRejectsUnknownOption(t *testing.T) {
	h := newTestHarness(t, nil)
	token := h.issue(t, "player-1", "wallet-1", auth.RolePlayer)
	rr := h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", token, `{"option_id":"opt-z"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastVoteIsRateLimitedPerWallet(t *testing.T) {
	h := newTestHarness(t, ratelimit.NewKeyedLimiter(0.001, 1, time.Minute))
	token := h.issue(t, "player-1", "wallet-1", auth.RolePlayer)

	rr := h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", token, `{"option_id":"opt-a"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", token, `{"option_id":"opt-a"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rr.Code, rr.Body.String())
	}

	other := h.issue(t, "player-2", "wallet-2", auth.RolePlayer)
	rr = h.do(http.MethodPost, "/api/v1/polls/poll-1/votes", other, `{"option_id":"opt-b"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a second wallet, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestIngestEventsAccepted(t *testing.T) {
	h := newTestHarness(t, nil)
	body := `{"events":[{"event_id":"e-1","wallet":"wallet-1","event_type":"tap","taps":12},{"event_id":"e-1","wallet":"wallet-1","event_type":"tap","taps":12}]}`
	rr := h.do(http.MethodPost, "/api/v1/ecosystem/events", "", body)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"accepted":1`) {
		t.Fatalf("expected one accepted event, body=%s", rr.Body.String())
	}
}

func TestIngestEventsRejectsOversizedBatch(t *testing.T) {
	h := newTestHarness(t, nil)
	events := make([]string, 501)
	for i := range events {
		events[i] = fmt.Sprintf(`{"wallet":"w-%d","event_type":"tap","taps":1}`, i)
	}
	rr := h.do(http.MethodPost, "/api/v1/ecosystem/events", "", `{"events":[`+strings.Join(events, ",")+`]}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetPollNotFound(t *testing.T) {
	h := newTestHarness(t, nil)
	rr := h.do(http.MethodGet, "/api/v1/polls/missing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
