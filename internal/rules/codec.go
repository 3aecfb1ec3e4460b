package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"whist/internal/domain"
)

type comparisonJSON struct {
	Type     string   `json:"type"`
	Target   string   `json:"target,omitempty"`
	Property string   `json:"property"`
	Op       Operator `json:"op"`
	Value    Literal  `json:"value"`
}

type compoundJSON struct {
	Type       PredicateKind `json:"type"`
	Predicates []Predicate   `json:"predicates"`
}

func (p CardPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{Type: string(KindCard), Target: string(p.Target), Property: string(p.Property), Op: p.Op, Value: p.Value})
}

func (p PlayerPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{Type: string(KindPlayer), Property: string(p.Property), Op: p.Op, Value: p.Value})
}

func (p TrickPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{Type: string(KindTrick), Property: string(p.Property), Op: p.Op, Value: p.Value})
}

func (p And) MarshalJSON() ([]byte, error) {
	return json.Marshal(compoundJSON{Type: KindAnd, Predicates: nonNil(p.Predicates)})
}

func (p Or) MarshalJSON() ([]byte, error) {
	return json.Marshal(compoundJSON{Type: KindOr, Predicates: nonNil(p.Predicates)})
}

func (p Not) MarshalJSON() ([]byte, error) {
	return json.Marshal(compoundJSON{Type: KindNot, Predicates: nonNil(p.Predicates)})
}

func nonNil(ps []Predicate) []Predicate {
	if ps == nil {
		return []Predicate{}
	}
	return ps
}

// predicateJSON is the union of every predicate node's fields.
type predicateJSON struct {
	Type       PredicateKind     `json:"type"`
	Target     CardTarget        `json:"target"`
	Property   string            `json:"property"`
	Op         Operator          `json:"op"`
	Value      Literal           `json:"value"`
	Predicates []json.RawMessage `json:"predicates"`
}

// DecodePredicate parses a tagged predicate tree.
func DecodePredicate(data []byte) (Predicate, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw predicateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode predicate: %w", err)
	}
	switch raw.Type {
	case KindCard:
		return CardPredicate{Target: raw.Target, Property: CardProperty(raw.Property), Op: raw.Op, Value: raw.Value}, nil
	case KindPlayer:
		return PlayerPredicate{Property: PlayerProperty(raw.Property), Op: raw.Op, Value: raw.Value}, nil
	case KindTrick:
		return TrickPredicate{Property: TrickProperty(raw.Property), Op: raw.Op, Value: raw.Value}, nil
	case KindAnd, KindOr, KindNot:
		children := make([]Predicate, 0, len(raw.Predicates))
		for i, child := range raw.Predicates {
			p, err := DecodePredicate(child)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", raw.Type, i, err)
			}
			children = append(children, p)
		}
		switch raw.Type {
		case KindAnd:
			return And{Predicates: children}, nil
		case KindOr:
			return Or{Predicates: children}, nil
		default:
			return Not{Predicates: children}, nil
		}
	}
	return nil, fmt.Errorf("unknown predicate type %q", raw.Type)
}

type effectJSON struct {
	Type        EffectKind      `json:"type"`
	CardMatcher json.RawMessage `json:"cardMatcher,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func (e ForbidPlay) MarshalJSON() ([]byte, error) {
	return marshalEffect(KindForbidPlay, e.CardMatcher, e.Message)
}

func (e RequirePlay) MarshalJSON() ([]byte, error) {
	return marshalEffect(KindRequirePlay, e.CardMatcher, e.Message)
}

func (e ForceDiscard) MarshalJSON() ([]byte, error) {
	return marshalEffect(KindForceDiscard, nil, e.Message)
}

func (SkipNextPlayer) MarshalJSON() ([]byte, error) {
	return marshalEffect(KindSkipNextPlayer, nil, "")
}

func (ReverseOrder) MarshalJSON() ([]byte, error) {
	return marshalEffect(KindReverseOrder, nil, "")
}

func marshalEffect(kind EffectKind, matcher Predicate, message string) ([]byte, error) {
	out := effectJSON{Type: kind, Message: message}
	if matcher != nil {
		b, err := json.Marshal(matcher)
		if err != nil {
			return nil, err
		}
		out.CardMatcher = b
	}
	return json.Marshal(out)
}

// DecodeEffect parses a tagged effect.
func DecodeEffect(data []byte) (Effect, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw effectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode effect: %w", err)
	}
	var matcher Predicate
	if len(raw.CardMatcher) > 0 {
		p, err := DecodePredicate(raw.CardMatcher)
		if err != nil {
			return nil, fmt.Errorf("cardMatcher: %w", err)
		}
		matcher = p
	}
	switch raw.Type {
	case KindForbidPlay:
		return ForbidPlay{CardMatcher: matcher, Message: raw.Message}, nil
	case KindRequirePlay:
		return RequirePlay{CardMatcher: matcher, Message: raw.Message}, nil
	case KindForceDiscard:
		return ForceDiscard{Message: raw.Message}, nil
	case KindSkipNextPlayer:
		return SkipNextPlayer{}, nil
	case KindReverseOrder:
		return ReverseOrder{}, nil
	}
	return nil, fmt.Errorf("unknown effect type %q", raw.Type)
}

func decodeEffects(raw []json.RawMessage) ([]Effect, error) {
	out := make([]Effect, 0, len(raw))
	for i, item := range raw {
		eff, err := DecodeEffect(item)
		if err != nil {
			return nil, fmt.Errorf("then[%d]: %w", i, err)
		}
		out = append(out, eff)
	}
	return out, nil
}

type draftJSON struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Event       EventType         `json:"event"`
	When        json.RawMessage   `json:"when"`
	Then        []json.RawMessage `json:"then"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	when, err := json.Marshal(d.When)
	if err != nil {
		return nil, err
	}
	then, err := marshalEffects(d.Then)
	if err != nil {
		return nil, err
	}
	return json.Marshal(draftJSON{Name: d.Name, Description: d.Description, Event: d.Event, When: when, Then: then})
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode rule draft: %w", err)
	}
	when, err := DecodePredicate(raw.When)
	if err != nil {
		return fmt.Errorf("when: %w", err)
	}
	then, err := decodeEffects(raw.Then)
	if err != nil {
		return err
	}
	*d = Draft{Name: raw.Name, Description: raw.Description, Event: raw.Event, When: when, Then: then}
	return nil
}

type ruleJSON struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	CreatedBy     domain.Seat       `json:"createdBy"`
	CreatedAtHand int               `json:"createdAtHand"`
	CreatedAt     time.Time         `json:"createdAt"`
	Event         EventType         `json:"event"`
	When          json.RawMessage   `json:"when"`
	Then          []json.RawMessage `json:"then"`
	IsActive      bool              `json:"isActive"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	when, err := json.Marshal(r.When)
	if err != nil {
		return nil, err
	}
	then, err := marshalEffects(r.Then)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleJSON{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		CreatedBy:     r.CreatedBy,
		CreatedAtHand: r.CreatedAtHand,
		CreatedAt:     r.CreatedAt,
		Event:         r.Event,
		When:          when,
		Then:          then,
		IsActive:      r.IsActive,
	})
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode rule: %w", err)
	}
	when, err := DecodePredicate(raw.When)
	if err != nil {
		return fmt.Errorf("rule %s when: %w", raw.ID, err)
	}
	then, err := decodeEffects(raw.Then)
	if err != nil {
		return fmt.Errorf("rule %s: %w", raw.ID, err)
	}
	*r = Rule{
		ID:            raw.ID,
		Name:          raw.Name,
		Description:   raw.Description,
		CreatedBy:     raw.CreatedBy,
		CreatedAtHand: raw.CreatedAtHand,
		CreatedAt:     raw.CreatedAt,
		Event:         raw.Event,
		When:          when,
		Then:          then,
		IsActive:      raw.IsActive,
	}
	return nil
}

func marshalEffects(effects []Effect) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(effects))
	for _, eff := range effects {
		b, err := json.Marshal(eff)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
