package model

import (
	"context"
	"fmt"
	"time"
)

// Session is the per-conversation state bag.
type Session struct {
	ID           string              `json:"id"`
	Company      string              `json:"company,omitempty"`
	Data         *FeatureVector      `json:"data,omitempty"`
	Prediction   *PredictionResult   `json:"prediction,omitempty"`
	Optimization *OptimizationBundle `json:"optimization,omitempty"`

	DataUploaded        bool `json:"data_uploaded"`
	PredictionMade      bool `json:"prediction_made"`
	OptimizationDone    bool `json:"optimization_done"`
	UserConfirmedReport bool `json:"user_confirmed_report"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot names one replaceable field of a Session.
type Slot string

const (
	SlotCompany             Slot = "company"
	SlotData                Slot = "data"
	SlotPrediction          Slot = "prediction"
	SlotOptimization        Slot = "optimization"
	SlotDataUploaded        Slot = "data_uploaded"
	SlotPredictionMade      Slot = "prediction_made"
	SlotOptimizationDone    Slot = "optimization_done"
	SlotUserConfirmedReport Slot = "user_confirmed_report"
)

// Apply replaces exactly one slot. The value must have the slot's type;
// flags are monotonic and cannot be switched back to false once set.
func (s *Session) Apply(slot Slot, value any) error {
	switch slot {
	case SlotCompany:
		v, ok := value.(string)
		if !ok {
			return slotTypeError(slot, value)
		}
		s.Company = v
	case SlotData:
		v, ok := value.(FeatureVector)
		if !ok {
			return slotTypeError(slot, value)
		}
		s.Data = &v
	case SlotPrediction:
		v, ok := value.(PredictionResult)
		if !ok {
			return slotTypeError(slot, value)
		}
		s.Prediction = &v
	case SlotOptimization:
		v, ok := value.(OptimizationBundle)
		if !ok {
			return slotTypeError(slot, value)
		}
		s.Optimization = &v
	case SlotDataUploaded:
		return setFlag(&s.DataUploaded, slot, value)
	case SlotPredictionMade:
		return setFlag(&s.PredictionMade, slot, value)
	case SlotOptimizationDone:
		return setFlag(&s.OptimizationDone, slot, value)
	case SlotUserConfirmedReport:
		return setFlag(&s.UserConfirmedReport, slot, value)
	default:
		return fmt.Errorf("unknown session slot %q", slot)
	}
	return nil
}

func setFlag(flag *bool, slot Slot, value any) error {
	v, ok := value.(bool)
	if !ok {
		return slotTypeError(slot, value)
	}
	if *flag && !v {
		return fmt.Errorf("session flag %q cannot be reset", slot)
	}
	*flag = v
	return nil
}

func slotTypeError(slot Slot, value any) error {
	return fmt.Errorf("session slot %q does not accept %T", slot, value)
}

// SessionStore keeps sessions for the lifetime of a conversation.
type SessionStore interface {
	// Create allocates a fresh, zero-initialised session and returns its id.
	Create(ctx context.Context) (string, error)

	// Get returns a copy of the session or an error matching errx.ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update replaces one slot. Unknown ids return errx.ErrSessionNotFound.
	Update(ctx context.Context, sessionID string, slot Slot, value any) error
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Data != nil {
		d := *s.Data
		c.Data = &d
	}
	if s.Prediction != nil {
		p := *s.Prediction
		c.Prediction = &p
	}
	if s.Optimization != nil {
		o := *s.Optimization
		o.Suggestions = append([]OptimizationSuggestion(nil), s.Optimization.Suggestions...)
		c.Optimization = &o
	}
	return &c
}
