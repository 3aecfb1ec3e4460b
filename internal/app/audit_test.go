package app

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/form3tech-oss/jwt-go"

	"whist/internal/domain"
	"whist/internal/game"
)

func parseAuditClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("expected token parse to succeed, got %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("expected map claims, got %T", parsed.Claims)
	}
	return claims
}

func stringClaim(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	value, ok := claims[key].(string)
	if !ok {
		t.Fatalf("expected %s claim to be string, got %T", key, claims[key])
	}
	return value
}

func playedRecord(t *testing.T) ReplayRecord {
	t.Helper()
	m := newTestManager(t, 1)
	if _, _, err := m.StartHand(seed(21)); err != nil {
		t.Fatal(err)
	}
	playHand(t, m)
	return m.Record()
}

func TestAuditSignAndVerify(t *testing.T) {
	rec := playedRecord(t)
	auditor := NewAuditor("secret", "whist-test")

	token, err := auditor.Sign(rec)
	if err != nil {
		t.Fatalf("expected sign to succeed, got %v", err)
	}
	claims := parseAuditClaims(t, token, "secret")
	if got := stringClaim(t, claims, "sub"); got != "game-1" {
		t.Errorf("expected sub game-1, got %q", got)
	}
	if got := stringClaim(t, claims, "iss"); got != "whist-test" {
		t.Errorf("expected iss whist-test, got %q", got)
	}
	if stringClaim(t, claims, "jti") == "" {
		t.Error("expected jti to be set")
	}

	verified, err := auditor.Verify(token, rec)
	if err != nil {
		t.Fatalf("expected verify to succeed, got %v", err)
	}
	if verified.ActionCount != len(rec.Actions) {
		t.Errorf("expected %d actions, got %d", len(rec.Actions), verified.ActionCount)
	}
	if len(verified.Seeds) != 1 || verified.Seeds[0] != 21 {
		t.Errorf("expected seeds [21], got %v", verified.Seeds)
	}
}

func TestAuditVerifySurvivesJSONRoundTrip(t *testing.T) {
	rec := playedRecord(t)
	auditor := NewAuditor("secret", "whist-test")
	token, err := auditor.Sign(rec)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var decoded ReplayRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, err := auditor.Verify(token, decoded); err != nil {
		t.Fatalf("expected decoded record to verify, got %v", err)
	}
}

func TestAuditDetectsTampering(t *testing.T) {
	rec := playedRecord(t)
	auditor := NewAuditor("secret", "whist-test")
	token, err := auditor.Sign(rec)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(r *ReplayRecord)
	}{
		{name: "game id", mutate: func(r *ReplayRecord) { r.GameID = "other" }},
		{name: "truncated log", mutate: func(r *ReplayRecord) { r.Actions = r.Actions[:len(r.Actions)-1] }},
		{name: "seeds", mutate: func(r *ReplayRecord) { r.Seeds = []int64{22} }},
		{name: "swapped winner", mutate: func(r *ReplayRecord) {
			last := &r.Actions[len(r.Actions)-1]
			last.Winner = last.Winner.Next()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := rec
			tampered.Actions = append([]game.Action{}, rec.Actions...)
			tt.mutate(&tampered)
			if _, err := auditor.Verify(token, tampered); !errors.Is(err, ErrReplayMismatch) {
				t.Errorf("expected ErrReplayMismatch, got %v", err)
			}
		})
	}

	if _, err := NewAuditor("wrong", "whist-test").Verify(token, rec); err == nil || errors.Is(err, ErrReplayMismatch) {
		t.Errorf("expected signature failure, got %v", err)
	}
}

func TestAuditRequiresConfig(t *testing.T) {
	rec := ReplayRecord{GameID: "g", Actions: []game.Action{game.AddPlayer(domain.North, "a", "A", false)}}
	tests := []struct {
		name    string
		auditor *Auditor
		want    string
	}{
		{name: "nil", auditor: nil, want: "nil"},
		{name: "no secret", auditor: NewAuditor("", "iss"), want: "incomplete"},
		{name: "no issuer", auditor: NewAuditor("secret", ""), want: "incomplete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auditor.Sign(rec)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if _, err := NewAuditor("secret", "iss").Sign(ReplayRecord{}); err == nil {
		t.Error("expected missing game id to fail")
	}
}
