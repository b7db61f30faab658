package models

import "encoding/json"

// Ledger is the complete persisted state. It is always loaded and saved as a whole.
type Ledger struct {
	Subscriptions map[string]*Subscription  `json:"subscriptions"`
	Groups        map[string]json.RawMessage `json:"groups"`
	Payments      map[string]*PaymentRecord  `json:"payments"`
}

// NewLedger returns an empty ledger with all mappings initialized.
func NewLedger() *Ledger {
	return &Ledger{
		Subscriptions: make(map[string]*Subscription),
		Groups:        make(map[string]json.RawMessage),
		Payments:      make(map[string]*PaymentRecord),
	}
}

// UnmarshalJSON decodes a ledger, initializing missing mappings and
// restoring each subscription's Key from its mapping key.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	type plain Ledger
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*l = Ledger(decoded)
	l.normalize()
	return nil
}

func (l *Ledger) normalize() {
	if l.Subscriptions == nil {
		l.Subscriptions = make(map[string]*Subscription)
	}
	if l.Groups == nil {
		l.Groups = make(map[string]json.RawMessage)
	}
	if l.Payments == nil {
		l.Payments = make(map[string]*PaymentRecord)
	}
	for key, sub := range l.Subscriptions {
		if sub == nil {
			delete(l.Subscriptions, key)
			continue
		}
		sub.Key = key
	}
	for key, p := range l.Payments {
		if p == nil {
			delete(l.Payments, key)
		}
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for key, sub := range l.Subscriptions {
		c.Subscriptions[key] = sub.Clone()
	}
	for key, raw := range l.Groups {
		c.Groups[key] = append(json.RawMessage(nil), raw...)
	}
	for key, p := range l.Payments {
		c.Payments[key] = p.Clone()
	}
	return c
}
