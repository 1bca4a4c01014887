package interfaces

import "context"

// RawMessage is one unseen message pulled from the mail source, carried
// as the full RFC822 payload plus the UID needed to flag it later.
type RawMessage struct {
	UID  uint32
	Body []byte
}

// MailSource is the boundary to the mail-retrieval collaborator. The
// pipeline only consumes these operations.
type MailSource interface {
	Connect(ctx context.Context) error
	FetchUnseen(ctx context.Context) ([]RawMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Logout() error
}
