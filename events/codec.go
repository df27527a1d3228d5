package events

import (
	"encoding/json"
	"fmt"

	"transfer-ledger/shared"
)

// Encode serializes an event for durable storage. The returned name is the
// type tag Decode needs to restore the concrete event.
func Encode(event Event) (shared.MessageName, []byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal event %T (%s): %w", event, event.GetBase().EventID, err)
	}
	return event.MessageName(), data, nil
}

func Decode(name shared.MessageName, data []byte) (Event, error) {
	switch name {
	case shared.AccountCreatedEventName:
		var e AccountCreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return e, nil
	case shared.TransferMadeEventName:
		var e TransferMadeEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return e, nil
	case shared.TransferReceivedEventName:
		var e TransferReceivedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return e, nil
	case shared.CustomerRegisteredEventName:
		var e CustomerRegisteredEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", name)
	}
}
