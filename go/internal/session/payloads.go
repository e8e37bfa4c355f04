package session

import "fmt"

// Payloads of the pushes every game shares. Game specific pushes (state,
// game-state, synopsis) are decoded by the game packages.

type StartedPayload struct {
	Playing bool `json:"playing"`
}

type CountdownPayload struct {
	Value int `json:"value"`
}

type DrawPayload struct {
	Drawer uint64 `json:"drawer"`
}

type FinishedPayload struct {
	Winner  uint64   `json:"winner,omitempty"`
	Winners []uint64 `json:"winners,omitempty"`
}

// AllWinners folds the single and multi winner forms together.
func (p FinishedPayload) AllWinners() []uint64 {
	if len(p.Winners) > 0 {
		return p.Winners
	}
	if p.Winner != 0 {
		return []uint64{p.Winner}
	}
	return nil
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type NotifyJoinPayload struct {
	Joined   uint64 `json:"joined"`
	Admitted bool   `json:"admitted"`
	Playing  bool   `json:"playing"`
	Ready    bool   `json:"ready"`
}

type NotifyCountbackPayload struct {
	Joined    uint64 `json:"joined"`
	Connected bool   `json:"connected"`
}

type AdmittedPayload struct {
	Admitted bool `json:"admitted"`
	Playing  bool `json:"playing"`
	Ready    bool `json:"ready"`
}

type PlayerPresence struct {
	UID     uint64 `json:"user"`
	Playing bool   `json:"playing"`
	Ready   bool   `json:"ready"`
}

type NotifyUsersPayload struct {
	Players []PlayerPresence `json:"players"`
}

type NotifyBindPayload struct {
	InitiatorID uint64 `json:"initiator_id"`
}

type KeepAlivePayload struct{}

// ParsePayload decodes the payload of a shared push into its typed struct.
// Game specific and outbound-only kinds return nil, nil; kinds outside the
// protocol table return ErrUnknownMessageType.
func ParsePayload(env Envelope) (any, error) {
	if !env.MessageType.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.MessageType)
	}
	switch env.MessageType {
	case MessageStarted:
		var payload StartedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageCountdown:
		var payload CountdownPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageDraw:
		var payload DrawPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageFinished:
		var payload FinishedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageError:
		var payload ErrorPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageNotifyJoin:
		var payload NotifyJoinPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageNotifyCountback:
		var payload NotifyCountbackPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageAdmitted:
		var payload AdmittedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageNotifyUsers:
		var payload NotifyUsersPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageNotifyBind:
		var payload NotifyBindPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MessageKeepAlive:
		return KeepAlivePayload{}, nil

	default:
		return nil, nil
	}
}
