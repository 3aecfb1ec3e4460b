package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"

	"whist/internal/game"
)

var ErrReplayMismatch = errors.New("replay does not match audit token")

// ReplayRecord is everything needed to rebuild a game.
type ReplayRecord struct {
	GameID  string        `json:"game_id"`
	Seeds   []int64       `json:"seeds"`
	Actions []game.Action `json:"actions"`
}

// Record captures the manager's replay record.
func (m *Manager) Record() ReplayRecord {
	return ReplayRecord{GameID: m.id, Seeds: m.Seeds(), Actions: m.Actions()}
}

// AuditClaims are the verified contents of an audit token.
type AuditClaims struct {
	GameID      string
	Issuer      string
	ActionCount int
	Seeds       []int64
	LogDigest   string
	StateDigest string
	IssuedAt    time.Time
}

// Auditor signs and verifies replay records with HS256 tokens.
type Auditor struct {
	secret string
	issuer string
	now    func() time.Time
}

func NewAuditor(secret, issuer string) *Auditor {
	return &Auditor{secret: secret, issuer: issuer, now: time.Now}
}

// Sign binds the record's game id, seeds, and digests of the action log
// and the replayed final state into a token.
func (a *Auditor) Sign(rec ReplayRecord) (string, error) {
	if a == nil {
		return "", fmt.Errorf("auditor is nil")
	}
	if a.secret == "" || a.issuer == "" {
		return "", fmt.Errorf("audit config is incomplete")
	}
	if rec.GameID == "" {
		return "", fmt.Errorf("game id is required")
	}
	logDigest, stateDigest, err := Digests(rec.Actions)
	if err != nil {
		return "", err
	}

	seeds := make([]string, len(rec.Seeds))
	for i, s := range rec.Seeds {
		seeds[i] = strconv.FormatInt(s, 10)
	}
	claims := jwt.MapClaims{
		"iss":   a.issuer,
		"sub":   rec.GameID,
		"iat":   a.now().Unix(),
		"jti":   uuid.NewString(),
		"act":   len(rec.Actions),
		"seeds": seeds,
		"log":   logDigest,
		"st":    stateDigest,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secret))
}

// Verify checks the token signature and that rec replays to the digests it
// carries.
func (a *Auditor) Verify(tokenString string, rec ReplayRecord) (AuditClaims, error) {
	if a == nil || a.secret == "" {
		return AuditClaims{}, fmt.Errorf("audit config is incomplete")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.secret), nil
	})
	if err != nil {
		return AuditClaims{}, fmt.Errorf("failed to parse audit token: %w", err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return AuditClaims{}, fmt.Errorf("audit token is invalid")
	}
	claims, err := decodeClaims(mc)
	if err != nil {
		return AuditClaims{}, err
	}

	logDigest, stateDigest, err := Digests(rec.Actions)
	if err != nil {
		return AuditClaims{}, err
	}
	switch {
	case claims.GameID != rec.GameID:
		return claims, fmt.Errorf("%w: game id", ErrReplayMismatch)
	case claims.ActionCount != len(rec.Actions) || claims.LogDigest != logDigest:
		return claims, fmt.Errorf("%w: action log", ErrReplayMismatch)
	case claims.StateDigest != stateDigest:
		return claims, fmt.Errorf("%w: final state", ErrReplayMismatch)
	case !equalSeeds(claims.Seeds, rec.Seeds):
		return claims, fmt.Errorf("%w: seeds", ErrReplayMismatch)
	}
	return claims, nil
}

// Digests returns hex SHA-256 digests of the action log and of the state
// it replays to.
func Digests(actions []game.Action) (logDigest, stateDigest string, err error) {
	logBytes, err := json.Marshal(actions)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode action log: %w", err)
	}
	stateBytes, err := json.Marshal(game.Replay(actions))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode replayed state: %w", err)
	}
	l := sha256.Sum256(logBytes)
	s := sha256.Sum256(stateBytes)
	return hex.EncodeToString(l[:]), hex.EncodeToString(s[:]), nil
}

func decodeClaims(mc jwt.MapClaims) (AuditClaims, error) {
	var c AuditClaims
	var ok bool
	if c.GameID, ok = mc["sub"].(string); !ok {
		return c, fmt.Errorf("audit token missing sub")
	}
	c.Issuer, _ = mc["iss"].(string)
	if c.LogDigest, ok = mc["log"].(string); !ok {
		return c, fmt.Errorf("audit token missing log digest")
	}
	if c.StateDigest, ok = mc["st"].(string); !ok {
		return c, fmt.Errorf("audit token missing state digest")
	}
	act, ok := mc["act"].(float64)
	if !ok {
		return c, fmt.Errorf("audit token missing action count")
	}
	c.ActionCount = int(act)
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	raw, _ := mc["seeds"].([]interface{})
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return c, fmt.Errorf("audit token has a malformed seed")
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return c, fmt.Errorf("audit token has a malformed seed: %w", err)
		}
		c.Seeds = append(c.Seeds, n)
	}
	return c, nil
}

func equalSeeds(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
