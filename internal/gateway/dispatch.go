package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/gateway/ws"
)

type modeParams struct {
	Mode string `json:"mode"`
}

type askParams struct {
	Option string `json:"option"`
	Text   string `json:"text"`
}

type textParams struct {
	Text string `json:"text"`
}

type answersParams struct {
	Answers []string `json:"answers"`
}

// dispatcher serves WebSocket requests with the same operations as the REST routes.
type dispatcher struct {
	svc Companion
}

func (d dispatcher) Dispatch(ctx context.Context, id string, method ws.Method, params json.RawMessage) (any, error) {
	payload, err := d.dispatch(ctx, id, method, params)
	if err != nil {
		kind, msg := describe(err)
		return nil, &ws.RequestError{Code: string(kind), Message: msg}
	}
	return payload, nil
}

func (d dispatcher) dispatch(ctx context.Context, id string, method ws.Method, params json.RawMessage) (any, error) {
	switch method {
	case ws.MethodSnapshot:
		return d.svc.Snapshot(ctx, id)

	case ws.MethodSwitchMode:
		var p modeParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return d.svc.SwitchMode(ctx, id, p.Mode)

	case ws.MethodAsk:
		var p askParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return d.svc.Ask(ctx, id, p.Option, p.Text)

	case ws.MethodConverse:
		var p textParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return d.svc.Converse(ctx, id, p.Text)

	case ws.MethodExpand:
		return d.svc.Expand(ctx, id)

	case ws.MethodStartExercise:
		return d.svc.StartExercise(ctx, id)

	case ws.MethodSubmitAnswers:
		var p answersParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return d.svc.SubmitAnswers(ctx, id, p.Answers)

	case ws.MethodResetExercise:
		return d.svc.ResetExercise(ctx, id)

	default:
		return nil, companion.InvalidInput(fmt.Errorf("unknown method %q", method))
	}
}

func unmarshalParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return companion.InvalidInput(err)
	}
	return nil
}
