package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/models"
)

func seedCorpus(t *testing.T, c *MemoryClient, corpus models.Corpus) {
	t.Helper()
	require.NoError(t, c.CreateCorpus(context.Background(), &corpus))
}

func TestMemoryClient_CorpusLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedCorpus(t, c, models.Corpus{ID: "c1", Kind: models.CorpusKindDocument, OwnerID: "u1", Title: "Lease", Status: models.StatusPending})

	got, err := c.GetCorpusByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := c.GetCorpusByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, c.UpdateCorpusStatus(ctx, "c1", models.StatusFailed, "boom"))
	got, _ = c.GetCorpusByID(ctx, "c1")
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	require.NoError(t, c.MarkCorpusReady(ctx, "c1", 3, 7))
	got, _ = c.GetCorpusByID(ctx, "c1")
	assert.Equal(t, models.StatusReady, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, 7, got.ChunkCount)
	require.NotNil(t, got.ProcessedAt)

	err = c.UpdateCorpusStatus(ctx, "nope", models.StatusReady, "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryClient_DuplicateSlug(t *testing.T) {
	c := NewMemoryClient()
	seedCorpus(t, c, models.Corpus{ID: "l1", Kind: models.CorpusKindLaw, Slug: "civil-code"})

	err := c.CreateCorpus(context.Background(), &models.Corpus{ID: "l2", Kind: models.CorpusKindLaw, Slug: "civil-code"})
	assert.ErrorIs(t, err, core.ErrPersistence)

	got, err := c.GetCorpusBySlug(context.Background(), "civil-code")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "l1", got.ID)
}

func TestMemoryClient_ListCorporaFilters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedCorpus(t, c, models.Corpus{ID: "a", Kind: models.CorpusKindDocument, OwnerID: "u1", Title: "Office Lease", Status: models.StatusReady, CreatedAt: base})
	seedCorpus(t, c, models.Corpus{ID: "b", Kind: models.CorpusKindDocument, OwnerID: "u2", Title: "NDA", Status: models.StatusReady, CreatedAt: base.Add(time.Hour)})
	seedCorpus(t, c, models.Corpus{ID: "law", Kind: models.CorpusKindLaw, Slug: "labor-law", Title: "Labor Law", TitleAlt: "قانون العمل", Status: models.StatusReady, CreatedAt: base.Add(2 * time.Hour)})

	own, err := c.ListCorpora(ctx, core.CorpusFilter{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "a", own[0].ID)

	withShared, err := c.ListCorpora(ctx, core.CorpusFilter{OwnerID: "u1", IncludeShared: true})
	require.NoError(t, err)
	require.Len(t, withShared, 2)
	assert.Equal(t, "law", withShared[0].ID, "newest first")

	laws, err := c.ListCorpora(ctx, core.CorpusFilter{Kind: models.CorpusKindLaw})
	require.NoError(t, err)
	assert.Len(t, laws, 1)

	found, err := c.ListCorpora(ctx, core.CorpusFilter{Search: "lease"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].ID)

	found, err = c.ListCorpora(ctx, core.CorpusFilter{Search: "العمل"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestMemoryClient_DeleteCorpusCascades(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedCorpus(t, c, models.Corpus{ID: "c1", Kind: models.CorpusKindDocument, OwnerID: "u1"})

	require.NoError(t, c.InsertChunks(ctx, []models.Chunk{
		{ID: "k2", CorpusID: "c1", Ordinal: 1, Content: "b"},
		{ID: "k1", CorpusID: "c1", Ordinal: 0, Content: "a"},
	}))
	chunks, err := c.GetChunksByCorpus(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "k1", chunks[0].ID)

	s := &models.ChatSession{ID: "s1", CorpusID: "c1", CallerID: "u1", Title: "t"}
	require.NoError(t, c.CreateChatSession(ctx, s))
	require.NoError(t, c.AddChatMessage(ctx, &models.ChatMessage{ID: "m1", SessionID: "s1", Role: models.RoleUser, Content: "hi"}))

	require.NoError(t, c.DeleteCorpus(ctx, "c1"))

	chunks, _ = c.GetChunksByCorpus(ctx, "c1")
	assert.Empty(t, chunks)
	sess, _ := c.GetChatSession(ctx, "s1")
	assert.Nil(t, sess)
	msgs, _ := c.GetMessagesBySession(ctx, "s1")
	assert.Empty(t, msgs)
}

func TestMemoryClient_ChunksRequireCorpus(t *testing.T) {
	c := NewMemoryClient()
	err := c.InsertChunks(context.Background(), []models.Chunk{{ID: "k", CorpusID: "ghost"}})
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestMemoryClient_Messages(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	seedCorpus(t, c, models.Corpus{ID: "c1", Kind: models.CorpusKindDocument})
	require.NoError(t, c.CreateChatSession(ctx, &models.ChatSession{ID: "s1", CorpusID: "c1", CallerID: "u1"}))

	require.NoError(t, c.AddChatMessage(ctx, &models.ChatMessage{ID: "m1", SessionID: "s1", Role: models.RoleUser, Content: "q"}))
	require.NoError(t, c.AddChatMessage(ctx, &models.ChatMessage{
		ID: "m2", SessionID: "s1", Role: models.RoleAssistant, Content: "a",
		Sources: []models.Citation{{Content: "x", Page: 2, ChunkIndex: 4}},
	}))

	msgs, err := c.GetMessagesBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, 4, msgs[1].Sources[0].ChunkIndex)

	err = c.AddChatMessage(ctx, &models.ChatMessage{ID: "m3", SessionID: "ghost"})
	assert.ErrorIs(t, err, core.ErrPersistence)

	sessions, err := c.ListChatSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.ErrorIs(t, c.TouchChatSession(ctx, "ghost"), core.ErrNotFound)
}
