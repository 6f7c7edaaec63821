package live

import "time"

// Role identifies which side of the conversation a committed message
// belongs to.
type Role string

const (
	// RoleUser is the source speaker's own speech.
	RoleUser Role = "user"

	// RoleModel is the translated output produced by the service.
	RoleModel Role = "model"
)

// ChatMessage is one committed speaker turn. Immutable once created;
// transcript order is append order.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
