// Package repo defines the key-value persistence contract used for the user
// profile, the history log and the per-user custom sign vault.
package repo

import "context"

const (
	KeyUser    = "sign_speak_user"
	KeyHistory = "sign_speak_logs"

	vaultPrefix    = "custom_signs"
	GuestNamespace = "guest"
)

// Store is a string key-value store. Get reports ok=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// VaultKey returns the vault key for userID, or the guest key when userID is empty.
func VaultKey(userID string) string {
	if userID == "" {
		userID = GuestNamespace
	}
	return vaultPrefix + "_" + userID
}
