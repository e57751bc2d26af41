package payment

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrMalformedEvent is returned when a webhook payload cannot be decoded
// into an event envelope.
var ErrMalformedEvent = errors.New("malformed webhook event")

// EventKind classifies provider events for reconciliation.
type EventKind int

const (
	// KindOther covers every event type the processor does not act on.
	// Such events are acknowledged without side effects.
	KindOther EventKind = iota
	KindPaymentSucceeded
	KindPaymentFailed
)

// Provider event type strings that trigger state changes.
const (
	eventTypeSucceeded = "payment.succeeded"
	eventTypeFailed    = "payment.failed"
)

// Event is the decoded provider webhook envelope. SessionID references the
// checkout session the event settles; order identity is resolved through
// the local session store, never from the payload itself.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

// Kind maps the provider event type onto the reconciliation taxonomy.
func (e *Event) Kind() EventKind {
	switch e.Type {
	case eventTypeSucceeded:
		return KindPaymentSucceeded
	case eventTypeFailed:
		return KindPaymentFailed
	default:
		return KindOther
	}
}

// DecodeEvent parses the raw webhook payload. The envelope is
// schema-loose: unknown fields are skipped so provider payload additions
// never break decoding. Only payloads missing the event id or type are
// rejected.
func DecodeEvent(raw []byte) (*Event, error) {
	var ev Event
	d := jx.DecodeBytes(raw)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			ev.ID = v
			return nil
		case "type":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "type")
			}
			ev.Type = v
			return nil
		case "data":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "session_id" {
					return d.Skip()
				}
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "data.session_id")
				}
				ev.SessionID = v
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(ErrMalformedEvent, err.Error())
	}

	if ev.ID == "" || ev.Type == "" {
		return nil, errors.Wrap(ErrMalformedEvent, "missing event id or type")
	}
	return &ev, nil
}
