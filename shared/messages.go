package shared

// MessageName identifies a command or event kind. The set is closed: buses
// refuse registrations for names not declared here.
type MessageName string

const (
	TransferCommandName         MessageName = "TransferCommand"
	OpenAccountCommandName      MessageName = "OpenAccountCommand"
	RegisterCustomerCommandName MessageName = "RegisterCustomerCommand"

	AccountCreatedEventName     MessageName = "AccountCreated"
	TransferMadeEventName       MessageName = "TransferMade"
	TransferReceivedEventName   MessageName = "TransferReceived"
	CustomerRegisteredEventName MessageName = "CustomerRegistered"
)

func (n MessageName) IsCommand() bool {
	switch n {
	case TransferCommandName, OpenAccountCommandName, RegisterCustomerCommandName:
		return true
	}
	return false
}

func (n MessageName) IsEvent() bool {
	switch n {
	case AccountCreatedEventName, TransferMadeEventName, TransferReceivedEventName, CustomerRegisteredEventName:
		return true
	}
	return false
}

func (n MessageName) Valid() bool {
	return n.IsCommand() || n.IsEvent()
}

func (n MessageName) String() string {
	return string(n)
}
