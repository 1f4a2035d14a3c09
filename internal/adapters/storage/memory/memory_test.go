package memory

import (
	"context"
	"testing"

	"species-catalog/internal/domain/profiles"
	"species-catalog/internal/domain/species"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeciesRepo_ReturnsCopies(t *testing.T) {
	repo := NewSpeciesRepo()
	ctx := context.Background()

	common := "Gray wolf"
	created, err := repo.Create(ctx, species.Species{
		AuthorID: "a",
		Fields:   species.Fields{ScientificName: "Canis lupus", CommonName: &common, Kingdom: species.KingdomAnimalia},
	})
	require.NoError(t, err)

	*created.CommonName = "mutated"
	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gray wolf", *got.CommonName)
}

func TestSpeciesRepo_UpdateKeepsAuthor(t *testing.T) {
	repo := NewSpeciesRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, species.Species{
		AuthorID: "a",
		Fields:   species.Fields{ScientificName: "Canis lupus", Kingdom: species.KingdomAnimalia},
	})
	require.NoError(t, err)

	created.AuthorID = "b"
	created.ScientificName = "Canis lupus lupus"
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AuthorID)
	assert.Equal(t, "Canis lupus lupus", got.ScientificName)

	assert.ErrorIs(t, repo.Update(ctx, species.Species{ID: 99}), species.ErrNotFound)
}

func TestSpeciesRepo_ListFilters(t *testing.T) {
	repo := NewSpeciesRepo()
	ctx := context.Background()
	oak := "English oak"

	for _, s := range []species.Species{
		{AuthorID: "a", Fields: species.Fields{ScientificName: "Canis lupus", Kingdom: species.KingdomAnimalia}},
		{AuthorID: "b", Fields: species.Fields{ScientificName: "Quercus robur", CommonName: &oak, Kingdom: species.KingdomPlantae}},
	} {
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}

	got, err := repo.List(ctx, species.ListFilter{Query: "OAK"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Quercus robur", got[0].ScientificName)

	got, err = repo.List(ctx, species.ListFilter{AuthorID: "a", Kingdom: species.KingdomAnimalia})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProfilesRepo(t *testing.T) {
	repo := NewProfilesRepo()
	ctx := context.Background()

	names, err := repo.FindDisplayNames(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, repo.Upsert(ctx, profiles.Profile{ID: "u-1", DisplayName: "Ana"}))
	names, err = repo.FindDisplayNames(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, names)
}
