package session

import "context"

// SettingsStore is the durable key/value collaborator for playback state.
// It survives process death; versioning and migration are its concern, the
// coordinator owns nothing beyond the key names.
type SettingsStore interface {
	Get(ctx context.Context, profileID int64, key string) (string, error)
	Set(ctx context.Context, profileID int64, key, value string) error
	ReloadAll(ctx context.Context, profileID int64) (map[string]string, error)
}

// QueueStore persists the playlist context captured at music selection time
// so a cold start can rehydrate next/previous navigation.
type QueueStore interface {
	SaveQueue(ctx context.Context, profileID int64, itemIDs []int64, index int) error
	LoadQueue(ctx context.Context, profileID int64) ([]int64, int, error)
	ClearQueue(ctx context.Context, profileID int64) error
}
