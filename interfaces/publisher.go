package interfaces

import "context"

// Publisher is the boundary to the deployment collaborator. It uploads
// a fully-built local directory to the publication target.
type Publisher interface {
	// SyncDir uploads every file under localDir and returns the
	// number of objects uploaded.
	SyncDir(ctx context.Context, localDir string) (int, error)
}
