package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/signalmesh/reactor/signal"
)

// wireSignal is the on-the-wire JSON envelope for a Signal, grounded in the
// teacher's hook codec style: a flat struct with RFC3339 timestamps and a
// raw payload field so arbitrary JSON-able payloads round-trip without the
// codec needing to know their shape.
type wireSignal struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Source    wireSource      `json:"source"`
}

type wireSource struct {
	Parent   string `json:"parent,omitempty"`
	Agent    string `json:"agent,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// EncodeSignal renders sig as its JSON wire form.
func EncodeSignal(sig signal.Signal) ([]byte, error) {
	payload, err := json.Marshal(sig.Payload)
	if err != nil {
		return nil, fmt.Errorf("store: encode signal %s payload: %w", sig.Name, err)
	}
	w := wireSignal{
		ID:        sig.ID,
		Name:      sig.Name,
		Timestamp: sig.Timestamp,
		Payload:   payload,
		Source: wireSource{
			Parent:   sig.Source.Parent,
			Agent:    sig.Source.Agent,
			Provider: sig.Source.Provider,
		},
	}
	out, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("store: encode signal %s: %w", sig.Name, err)
	}
	return out, nil
}

// DecodeSignal parses the JSON wire form produced by EncodeSignal back into
// a Signal. Payload is decoded into a generic any (map[string]any, float64,
// etc.), matching what a harness adapter or test fixture would produce
// without a registered payload type.
func DecodeSignal(data []byte) (signal.Signal, error) {
	var w wireSignal
	if err := json.Unmarshal(data, &w); err != nil {
		return signal.Signal{}, fmt.Errorf("store: decode signal: %w", err)
	}
	var payload any
	if len(w.Payload) > 0 {
		if err := json.Unmarshal(w.Payload, &payload); err != nil {
			return signal.Signal{}, fmt.Errorf("store: decode signal %s payload: %w", w.Name, err)
		}
	}
	return signal.Signal{
		ID:        w.ID,
		Name:      w.Name,
		Timestamp: w.Timestamp,
		Payload:   payload,
		Source: signal.Source{
			Parent:   w.Source.Parent,
			Agent:    w.Source.Agent,
			Provider: w.Source.Provider,
		},
	}, nil
}

// EncodeSignals renders signals as a JSON array, the on-disk layout a
// persistent backend (file, object storage) would write one recording's log
// as.
func EncodeSignals(signals []signal.Signal) ([]byte, error) {
	wires := make([]json.RawMessage, len(signals))
	for i, sig := range signals {
		raw, err := EncodeSignal(sig)
		if err != nil {
			return nil, err
		}
		wires[i] = raw
	}
	out, err := json.Marshal(wires)
	if err != nil {
		return nil, fmt.Errorf("store: encode signals: %w", err)
	}
	return out, nil
}

// DecodeSignals parses the array form produced by EncodeSignals.
func DecodeSignals(data []byte) ([]signal.Signal, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("store: decode signals: %w", err)
	}
	out := make([]signal.Signal, len(raws))
	for i, raw := range raws {
		sig, err := DecodeSignal(raw)
		if err != nil {
			return nil, err
		}
		out[i] = sig
	}
	return out, nil
}
