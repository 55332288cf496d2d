package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode produces a flat JSON object: the payload's fields plus "type".
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode message with empty type")
	}
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(pb, &fields); err != nil {
		return nil, fmt.Errorf("payload for %q is not an object: %w", t, err)
	}
	tb, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	fields["type"] = tb

	return json.Marshal(fields)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, &ProtocolError{Err: ErrEmptyFrame}
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, &ProtocolError{Err: err}
	}
	if e.Type == "" {
		return Envelope{}, &ProtocolError{Err: ErrMissingType}
	}
	e.Raw = b
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Raw) == 0 {
		return out, &ProtocolError{Type: env.Type, Err: ErrEmptyFrame}
	}
	if err := json.Unmarshal(env.Raw, &out); err != nil {
		return out, &ProtocolError{Type: env.Type, Err: err}
	}
	return out, nil
}

// Decode parses one inbound frame into its concrete message. Unknown kinds and
// invalid fields come back as *ProtocolError.
func Decode(b []byte) (Inbound, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case MsgJoin:
		m, err := DecodePayload[Join](env)
		if err != nil {
			return nil, err
		}
		if m.RoomID == "" {
			return nil, invalid(env.Type, "roomId is required")
		}
		if m.PlayerID <= 0 {
			return nil, invalid(env.Type, "playerId must be positive")
		}
		return m, nil
	case MsgReady:
		return DecodePayload[Ready](env)
	case MsgInput:
		m, err := DecodePayload[Input](env)
		if err != nil {
			return nil, err
		}
		if !m.Direction.Valid() {
			return nil, invalid(env.Type, "direction %d not in {-1,0,1}", m.Direction)
		}
		return m, nil
	case MsgJoinTournament:
		m, err := DecodePayload[JoinTournament](env)
		if err != nil {
			return nil, err
		}
		if m.PlayerID <= 0 {
			return nil, invalid(env.Type, "playerId must be positive")
		}
		if m.Size < 0 {
			return nil, invalid(env.Type, "size must not be negative")
		}
		return m, nil
	case MsgLeaveTournament, MsgLeave:
		return DecodePayload[LeaveTournament](env)
	default:
		return nil, &ProtocolError{Type: env.Type, Err: ErrUnknownType}
	}
}
