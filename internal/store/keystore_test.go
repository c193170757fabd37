package store_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"agentlink/internal/crypto"
	"agentlink/internal/domain"
	"agentlink/internal/store"
)

func newIdentity(t *testing.T) domain.Identity {
	t.Helper()
	sig, err := crypto.GenerateKeyPair(domain.KeyTypeEd25519)
	require.NoError(t, err)
	kem, err := crypto.GenerateKeyPair(domain.KeyTypeX25519)
	require.NoError(t, err)
	did, err := crypto.DIDForKey("agent", "local", sig.Public)
	require.NoError(t, err)
	return domain.Identity{DID: did, Signing: sig, KEM: kem}
}

func TestKeystore_SaveLoad(t *testing.T) {
	for _, kdf := range []store.KDF{store.KDFArgon2id, store.KDFScrypt} {
		ks := store.NewKeystore(t.TempDir()).WithKDF(kdf)
		id := newIdentity(t)

		require.NoError(t, ks.SaveIdentity("Correct-Horse-9", id), kdf)
		got, err := ks.LoadIdentity("Correct-Horse-9")
		require.NoError(t, err, kdf)
		require.Equal(t, id, got, kdf)

		info, err := os.Stat(ks.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestKeystore_WrongPassphrase(t *testing.T) {
	ks := store.NewKeystore(t.TempDir())
	require.NoError(t, ks.SaveIdentity("correct", newIdentity(t)))

	_, err := ks.LoadIdentity("wrong")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
	require.ErrorIs(t, err, domain.ErrCrypto)
}

func TestKeystore_Tampered(t *testing.T) {
	ks := store.NewKeystore(t.TempDir())
	require.NoError(t, ks.SaveIdentity("pass", newIdentity(t)))

	require.NoError(t, os.WriteFile(ks.Path(), []byte(`{"v":2,"salt":"AAAA","cipher":"AAAA"}`), 0o600))
	_, err := ks.LoadIdentity("pass")
	require.ErrorIs(t, err, domain.ErrCrypto)

	require.NoError(t, os.WriteFile(ks.Path(), []byte(`{"v":9}`), 0o600))
	_, err = ks.LoadIdentity("pass")
	require.ErrorIs(t, err, domain.ErrCrypto)
}

func TestKeystore_Missing(t *testing.T) {
	_, err := store.NewKeystore(t.TempDir()).LoadIdentity("pass")
	require.ErrorIs(t, err, store.ErrNoIdentity)
	require.ErrorIs(t, err, domain.ErrIdentity)
}

func TestKeystore_RejectsMismatchedPair(t *testing.T) {
	id := newIdentity(t)
	other := newIdentity(t)
	id.KEM.Public = other.KEM.Public

	ks := store.NewKeystore(t.TempDir())
	require.ErrorIs(t, ks.SaveIdentity("pass", id), domain.ErrCrypto)
	_, err := os.Stat(ks.Path())
	require.True(t, os.IsNotExist(err), "nothing must be written")
}
