package nakama

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"whist/internal/app"
	"whist/internal/domain"
	"whist/internal/rules"
)

var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:     OpPlayerJoined,
	app.EventPlayerLeft:       OpPlayerLeft,
	app.EventPlayerConnection: OpPlayerConnection,
	app.EventHandStarted:      OpHandStarted,
	app.EventHandDealt:        OpHandDealt,
	app.EventCardPlayed:       OpCardPlayed,
	app.EventTrickCompleted:   OpTrickCompleted,
	app.EventHandCompleted:    OpHandCompleted,
	app.EventRuleAdded:        OpRuleAdded,
	app.EventRuleTriggered:    OpRuleTriggered,
	app.EventRulesSuspended:   OpRulesSuspended,
	app.EventGameEnded:        OpGameEnded,
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return s, nil
}

// encodeMessage renders v as the JSON wire payload.
func encodeMessage(v interface{}) ([]byte, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// encodeEvent maps an app event to its op code and wire payload.
func encodeEvent(ev app.Event) (int64, []byte, error) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	data, err := encodeMessage(ev.Payload)
	if err != nil {
		return 0, nil, fmt.Errorf("event %s: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

// decodeRequest parses a client payload. An empty payload is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return s, nil
}

// cardField reads a card given either as a code ("7H") or as
// {"suit":"hearts","rank":"7"}.
func cardField(s *structpb.Struct, key string) (domain.Card, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return domain.Card{}, fmt.Errorf("%s is required", key)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return domain.ParseCard(strings.ToUpper(strings.TrimSpace(kind.StringValue)))
	case *structpb.Value_StructValue:
		raw, err := protojson.Marshal(kind.StructValue)
		if err != nil {
			return domain.Card{}, err
		}
		var c domain.Card
		if err := json.Unmarshal(raw, &c); err != nil {
			return domain.Card{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if !c.Valid() {
			return domain.Card{}, fmt.Errorf("invalid %s", key)
		}
		return c, nil
	}
	return domain.Card{}, fmt.Errorf("%s must be a string or an object", key)
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// draftField decodes a rule draft from the tagged rule JSON under key.
func draftField(s *structpb.Struct, key string) (rules.Draft, error) {
	v, ok := s.GetFields()[key]
	if !ok || v.GetStructValue() == nil {
		return rules.Draft{}, fmt.Errorf("%s must be an object", key)
	}
	raw, err := protojson.Marshal(v.GetStructValue())
	if err != nil {
		return rules.Draft{}, err
	}
	var d rules.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return rules.Draft{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// timestampValue renders t in the protobuf JSON form for Timestamp.
func timestampValue(t time.Time) string {
	raw, err := protojson.Marshal(timestamppb.New(t))
	if err != nil {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.Trim(string(raw), `"`)
}

// encodeLabel builds the match label used by matchmaking queries.
func encodeLabel(open int, phase string) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":  GameLabel,
		"open":  open,
		"phase": phase,
	})
	if err != nil {
		return "", err
	}
	raw, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
