package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ReceiptStatus represents the lifecycle state of a persisted receipt.
// The external receipt service owns the authoritative value; this type
// mirrors its wire format.
type ReceiptStatus int

const (
	ReceiptStatusGenerated ReceiptStatus = 0
	ReceiptStatusSent      ReceiptStatus = 1
	ReceiptStatusVoided    ReceiptStatus = 2
)

func (s ReceiptStatus) String() string {
	names := [...]string{"generated", "sent", "voided"}
	if int(s) < 0 || int(s) >= len(names) {
		return "generated"
	}
	return names[s]
}

// IsVoided reports whether the receipt reached its terminal state.
// No transition is defined out of voided.
func (s ReceiptStatus) IsVoided() bool {
	return s == ReceiptStatusVoided
}

func (s ReceiptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ReceiptStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ReceiptStatus(i)
		return nil
	}
	switch str {
	case "generated":
		*s = ReceiptStatusGenerated
	case "sent":
		*s = ReceiptStatusSent
	case "voided":
		*s = ReceiptStatusVoided
	}
	return nil
}

func (s ReceiptStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ReceiptStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ReceiptStatusGenerated
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ReceiptStatus(v)
	case int:
		*s = ReceiptStatus(v)
	}
	return nil
}

// ReceiptAction is a user-facing operation on a receipt.
type ReceiptAction string

const (
	ReceiptActionDownload  ReceiptAction = "download"
	ReceiptActionSendEmail ReceiptAction = "send_email"
	ReceiptActionVoid      ReceiptAction = "void"
)

// PermittedActions returns the set of actions allowed for the status.
// Download is a read-only operation and stays available in every state;
// send and void are shut off once the receipt is voided.
func (s ReceiptStatus) PermittedActions() []ReceiptAction {
	if s.IsVoided() {
		return []ReceiptAction{ReceiptActionDownload}
	}
	return []ReceiptAction{ReceiptActionDownload, ReceiptActionSendEmail, ReceiptActionVoid}
}

// Permits reports whether the given action is allowed for the status.
func (s ReceiptStatus) Permits(action ReceiptAction) bool {
	for _, a := range s.PermittedActions() {
		if a == action {
			return true
		}
	}
	return false
}
