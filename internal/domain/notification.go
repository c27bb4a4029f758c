package domain

const (
	NotificationKindShiftAssigned = "shift_assigned"
	NotificationKindOfferReceived = "offer_received"
	NotificationKindNewAccount    = "new_account"
	NotificationKindResetPassword = "reset_password"
)

// NotificationMessage is the payload placed on the notification queue. The
// worker only sees this message, so it carries the delivery address as well
// as the structured payload the templates render from.
type NotificationMessage struct {
	RecipientID int64          `json:"recipientID"`
	To          string         `json:"to"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Payload     map[string]any `json:"payload"`
}
