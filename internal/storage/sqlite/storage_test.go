package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
	"github.com/mcoot/hangman/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	sqlite *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.NewStorage = func() storage.Storage {
		st, err := Open(MemoryPath)
		s.Require().NoError(err)
		s.sqlite = st
		return st
	}
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	if s.sqlite != nil {
		_ = s.sqlite.Close()
	}
}

func (s *StorageSuite) TestActiveIndexRejectsDirectInsert() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")
	_, err := s.Storage.UpdateGame(s.Ctx, "g1", func(g *model.Game) error {
		id := owner.ID
		g.ActivePlayerID = &id
		return g.Transition(model.GameStatusInProgress, s.Now)
	})
	s.Require().NoError(err)

	id := owner.ID
	err = s.Storage.CreateGame(s.Ctx, &model.Game{
		ID:                "g2",
		OwnerID:           owner.ID,
		ActivePlayerID:    &id,
		SecretWord:        "perro",
		RemainingAttempts: 7,
		Status:            model.GameStatusInProgress,
		IsActive:          true,
		CreatedAt:         s.Now,
		UpdatedAt:         s.Now,
	})
	s.ErrorIs(err, model.ErrAlreadyHasActiveGame)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	require.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hangman.db")

	st, err := Open(path)
	require.NoError(t, err)
	user := &model.User{ID: "u1", Name: "Ana", Phone: "+5215550001", Role: model.RolePlayer}
	require.NoError(t, st.SaveUser(t.Context(), user))
	require.NoError(t, st.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetUser(t.Context(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana", got.Name)
}
