package accounts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/credential"
	"github.com/ZaGrayWolf/Treble-MusicPlayingApp/internal/store"
)

type fakeUser struct {
	id         int64
	name       string
	credential string
	tier       store.Tier
}

type fakeStore struct {
	users     map[string]*fakeUser
	nextID    int64
	err       error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*fakeUser{}, nextID: 1}
}

func (f *fakeStore) byID(id int64) *fakeUser {
	for _, u := range f.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (f *fakeStore) UserExists(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.users[name]
	return ok, nil
}

func (f *fakeStore) CreateUser(_ context.Context, name, cred string, tier store.Tier) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.users[name]; ok {
		return 0, store.ErrUserExists
	}
	u := &fakeUser{id: f.nextID, name: name, credential: cred, tier: tier}
	f.users[name] = u
	f.nextID++
	return u.id, nil
}

func (f *fakeStore) UserCredential(_ context.Context, name string) (int64, string, error) {
	if f.err != nil {
		return 0, "", f.err
	}
	u, ok := f.users[name]
	if !ok {
		return 0, "", store.ErrUserNotFound
	}
	return u.id, u.credential, nil
}

func (f *fakeStore) UserProfile(_ context.Context, userID int64) (store.Profile, error) {
	if f.err != nil {
		return store.Profile{}, f.err
	}
	u := f.byID(userID)
	if u == nil {
		return store.Profile{}, store.ErrUserNotFound
	}
	return store.Profile{ID: u.id, Name: u.name, Tier: u.tier, JoinDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeStore) UserName(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	u := f.byID(userID)
	if u == nil {
		return "", store.ErrUserNotFound
	}
	return u.name, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID int64, cred string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u := f.byID(userID)
	if u == nil {
		return store.ErrUserNotFound
	}
	u.credential = cred
	return nil
}

func (f *fakeStore) UpdateTier(_ context.Context, userID int64, tier store.Tier) error {
	u := f.byID(userID)
	if u == nil {
		return store.ErrUserNotFound
	}
	u.tier = tier
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID int64) error {
	if f.err != nil {
		return f.err
	}
	u := f.byID(userID)
	if u == nil {
		return store.ErrUserNotFound
	}
	delete(f.users, u.name)
	return nil
}

func newService(t *testing.T, st Store) (Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(st, zerolog.New(&buf)), &buf
}

func TestSignupAndLogin(t *testing.T) {
	st := newFakeStore()
	svc, _ := newService(t, st)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "  alice ", "s3cret!pw", store.TierFree)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.True(t, svc.Exists(ctx, "alice"))
	require.NotEqual(t, "s3cret!pw", st.users["alice"].credential)

	got, ok := svc.Login(ctx, "alice", "s3cret!pw")
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = svc.Login(ctx, "alice", "wrong!pw1")
	require.False(t, ok)

	_, ok = svc.Login(ctx, "nobody", "s3cret!pw")
	require.False(t, ok)
}

func TestSignupRejectsBadInput(t *testing.T) {
	svc, _ := newService(t, newFakeStore())
	ctx := context.Background()

	_, err := svc.Signup(ctx, " ", "s3cret!pw", store.TierFree)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "bob", "s3cret!pw", store.Tier("Gold"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "bob", "short1!", store.TierFree)
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Signup(ctx, "bob", "nodigits!!", store.TierFree)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignupDuplicateName(t *testing.T) {
	svc, _ := newService(t, newFakeStore())
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "s3cret!pw", store.TierFree)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "alice", "other!pw9", store.TierPremium)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignupStoreFailureIsLogged(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("connection reset")
	svc, logs := newService(t, st)

	_, err := svc.Signup(context.Background(), "alice", "s3cret!pw", store.TierFree)
	require.ErrorIs(t, err, ErrSignupFailed)
	require.Contains(t, logs.String(), "connection reset")
}

func TestLoginUpgradesLegacyCredential(t *testing.T) {
	st := newFakeStore()
	sum := sha256.Sum256([]byte("old!pass1"))
	st.users["carol"] = &fakeUser{id: 7, name: "carol", credential: hex.EncodeToString(sum[:]), tier: store.TierFree}
	svc, _ := newService(t, st)
	ctx := context.Background()

	id, ok := svc.Login(ctx, "carol", "old!pass1")
	require.True(t, ok)
	require.Equal(t, int64(7), id)
	require.False(t, credential.IsLegacy(st.users["carol"].credential))

	_, ok = svc.Login(ctx, "carol", "old!pass1")
	require.True(t, ok)
}

func TestLoginSucceedsWhenUpgradeFails(t *testing.T) {
	st := newFakeStore()
	sum := sha256.Sum256([]byte("old!pass1"))
	legacy := hex.EncodeToString(sum[:])
	st.users["carol"] = &fakeUser{id: 7, name: "carol", credential: legacy, tier: store.TierFree}
	st.updateErr = errors.New("read only")
	svc, logs := newService(t, st)

	_, ok := svc.Login(context.Background(), "carol", "old!pass1")
	require.True(t, ok)
	require.Equal(t, legacy, st.users["carol"].credential)
	require.Contains(t, logs.String(), "legacy credential upgrade failed")
}

func TestLoginStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("timeout")
	svc, _ := newService(t, st)

	_, ok := svc.Login(context.Background(), "alice", "s3cret!pw")
	require.False(t, ok)
}

func TestProfileAndName(t *testing.T) {
	st := newFakeStore()
	svc, _ := newService(t, st)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "dave", "s3cret!pw", store.TierPremium)
	require.NoError(t, err)

	profile, ok := svc.Profile(ctx, id)
	require.True(t, ok)
	require.Equal(t, "dave", profile.Name)
	require.Equal(t, store.TierPremium, profile.Tier)

	require.Equal(t, "dave", svc.Name(ctx, id))
	require.Equal(t, PlaceholderName, svc.Name(ctx, 99))

	_, ok = svc.Profile(ctx, 99)
	require.False(t, ok)

	st.err = errors.New("down")
	require.Equal(t, PlaceholderName, svc.Name(ctx, id))
}

func TestChangePassword(t *testing.T) {
	st := newFakeStore()
	svc, _ := newService(t, st)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "erin", "s3cret!pw", store.TierFree)
	require.NoError(t, err)

	require.False(t, svc.ChangePassword(ctx, id, "weak"))
	require.True(t, svc.ChangePassword(ctx, id, "n3w!password"))

	_, ok := svc.Login(ctx, "erin", "s3cret!pw")
	require.False(t, ok)
	_, ok = svc.Login(ctx, "erin", "n3w!password")
	require.True(t, ok)

	require.False(t, svc.ChangePassword(ctx, 99, "n3w!password"))
}

func TestUpdateSubscriptionAndDelete(t *testing.T) {
	st := newFakeStore()
	svc, _ := newService(t, st)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "frank", "s3cret!pw", store.TierFree)
	require.NoError(t, err)

	require.False(t, svc.UpdateSubscription(ctx, id, store.Tier("Gold")))
	require.True(t, svc.UpdateSubscription(ctx, id, store.TierPremium))
	require.Equal(t, store.TierPremium, st.users["frank"].tier)

	require.NoError(t, svc.Delete(ctx, id))
	require.False(t, svc.Exists(ctx, "frank"))
}

func TestDeleteMissingAccount(t *testing.T) {
	st := newFakeStore()
	svc, logs := newService(t, st)
	ctx := context.Background()

	require.ErrorIs(t, svc.Delete(ctx, 42), ErrUserNotFound)
	require.Empty(t, logs.String())

	st.err = errors.New("connection reset")
	require.ErrorIs(t, svc.Delete(ctx, 42), ErrDeleteFailed)
	require.Contains(t, logs.String(), "connection reset")
}
