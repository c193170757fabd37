package interfaces

import domaintypes "agentlink/internal/domain/types"

// IdentityStore persists the local long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// RecordSource loads identity records in bulk, e.g. from a seed file.
type RecordSource interface {
	LoadRecords() ([]domaintypes.IdentityRecord, error)
}
