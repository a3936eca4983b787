package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
	"github.com/sentinel-auth/sentinel/internal/platform/httpx"
	"github.com/sentinel-auth/sentinel/internal/shared"
)

type mockRepository struct {
	characters map[int64][]Character
}

func newMockRepository() *mockRepository {
	return &mockRepository{characters: make(map[int64][]Character)}
}

func (m *mockRepository) ListUsers(context.Context) ([]User, error) { return nil, nil }

func (m *mockRepository) GetUser(_ context.Context, id int64) (User, error) {
	return User{}, shared.ErrNotFound
}

func (m *mockRepository) ListCharacters(_ context.Context, userID int64) ([]Character, error) {
	return m.characters[userID], nil
}

func (m *mockRepository) AddCharacter(_ context.Context, c Character) (Character, error) {
	for _, existing := range m.characters[c.UserID] {
		if existing.CharacterID == c.CharacterID {
			return Character{}, httpx.ErrDuplicate
		}
	}
	m.characters[c.UserID] = append(m.characters[c.UserID], c)
	return c, nil
}

func (m *mockRepository) RemoveCharacter(_ context.Context, userID, characterID int64) error {
	chars := m.characters[userID]
	for i, c := range chars {
		if c.CharacterID == characterID {
			m.characters[userID] = append(chars[:i], chars[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepository) SetCharacterRoles(_ context.Context, userID, characterID int64, roles []string) error {
	chars := m.characters[userID]
	for i, c := range chars {
		if c.CharacterID == characterID {
			chars[i].CorporationRoles = roles
			return nil
		}
	}
	return shared.ErrNotFound
}

type recordingInvalidator struct {
	userCalls []int64
}

func (r *recordingInvalidator) InvalidateUser(_ context.Context, userID int64) error {
	r.userCalls = append(r.userCalls, userID)
	return nil
}

type recordingEnqueuer struct {
	tags []string
}

func (r *recordingEnqueuer) EnqueueInvalidation(_ context.Context, tags ...string) error {
	r.tags = append(r.tags, tags...)
	return nil
}

func newTestService() (*Service, *mockRepository, *recordingInvalidator, *recordingEnqueuer) {
	repo := newMockRepository()
	inv := &recordingInvalidator{}
	enq := &recordingEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, inv, enq, logger), repo, inv, enq
}

func TestAddCharacterInvalidatesUserCache(t *testing.T) {
	svc, repo, inv, enq := newTestService()
	ctx := context.Background()

	c, err := svc.AddCharacter(ctx, 7, 101, " Pilot One ", []string{"Director"})
	require.NoError(t, err)
	require.Equal(t, "Pilot One", c.Name)
	require.Len(t, repo.characters[7], 1)
	require.Equal(t, []int64{7}, inv.userCalls)
	require.Equal(t, []string{affiliation.TagUser(7)}, enq.tags)
}

func TestAddCharacterValidation(t *testing.T) {
	svc, _, inv, _ := newTestService()

	_, err := svc.AddCharacter(context.Background(), 7, 0, "Pilot", nil)
	require.Error(t, err)
	require.Empty(t, inv.userCalls)
}

func TestAddCharacterDuplicate(t *testing.T) {
	svc, _, inv, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddCharacter(ctx, 7, 101, "Pilot", nil)
	require.NoError(t, err)

	_, err = svc.AddCharacter(ctx, 7, 101, "Pilot", nil)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	// Failed mutations never touch the cache.
	require.Equal(t, []int64{7}, inv.userCalls)
}

func TestRemoveCharacter(t *testing.T) {
	svc, repo, inv, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddCharacter(ctx, 7, 101, "Pilot", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCharacter(ctx, 7, 101))
	require.Empty(t, repo.characters[7])
	require.Equal(t, []int64{7, 7}, inv.userCalls)

	require.ErrorIs(t, svc.RemoveCharacter(ctx, 7, 101), shared.ErrNotFound)
}

func TestSetCharacterRoles(t *testing.T) {
	svc, repo, inv, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddCharacter(ctx, 7, 101, "Pilot", nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetCharacterRoles(ctx, 7, 101, []string{"Accountant"}))
	require.Equal(t, []string{"Accountant"}, repo.characters[7][0].CorporationRoles)
	require.Equal(t, []int64{7, 7}, inv.userCalls)
}
