package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, ContentsCollection, Document{"post": "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, ContentsCollection, id)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc["post"])
	assert.Equal(t, id, doc["_id"])

	_, err = s.Get(ctx, ContentsCollection, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "nope", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, UsersCollection, "a", Document{"following": []string{"b"}}))

	doc, err := s.Get(ctx, UsersCollection, "a")
	require.NoError(t, err)
	doc["following"] = primitive.A{"x", "y"}

	again, err := s.Get(ctx, UsersCollection, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, StringSet(again["following"]))
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, ProfileCollection, "1", Document{"userId": "u1", "tags": []string{"go"}}))
	require.NoError(t, s.Set(ctx, ProfileCollection, "2", Document{"userId": "u2", "tags": []string{"rust"}}))
	require.NoError(t, s.Set(ctx, ProfileCollection, "3", Document{"userId": "u3"}))

	all, err := s.Query(ctx, ProfileCollection)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0]["_id"])
	assert.Equal(t, "3", all[2]["_id"])

	byEq, err := s.Query(ctx, ProfileCollection, Eq("userId", "u2"))
	require.NoError(t, err)
	require.Len(t, byEq, 1)
	assert.Equal(t, "2", byEq[0]["_id"])

	byArray, err := s.Query(ctx, ProfileCollection, Eq("tags", "go"))
	require.NoError(t, err)
	require.Len(t, byArray, 1)
	assert.Equal(t, "1", byArray[0]["_id"])

	byIn, err := s.Query(ctx, ProfileCollection, In("userId", []string{"u1", "u3", "u9"}))
	require.NoError(t, err)
	assert.Len(t, byIn, 2)

	none, err := s.Query(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreUpdateDeltas(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, UsersCollection, "a", Document{"following": []string{}}))

	require.NoError(t, s.Update(ctx, UsersCollection, "a", AddToSet("following", "b")))
	require.NoError(t, s.Update(ctx, UsersCollection, "a", AddToSet("following", "b")))
	require.NoError(t, s.Update(ctx, UsersCollection, "a", AddToSet("followers", "c")))

	doc, err := s.Get(ctx, UsersCollection, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, StringSet(doc["following"]))
	assert.Equal(t, []string{"c"}, StringSet(doc["followers"]))

	require.NoError(t, s.Update(ctx, UsersCollection, "a",
		RemoveFromSet("following", "b"),
		RemoveFromSet("missing", "b"),
		SetField("bio", "hi"),
	))
	doc, err = s.Get(ctx, UsersCollection, "a")
	require.NoError(t, err)
	assert.Empty(t, StringSet(doc["following"]))
	assert.Equal(t, "hi", doc["bio"])

	assert.ErrorIs(t, s.Update(ctx, UsersCollection, "zz", SetField("bio", "x")), ErrNotFound)
}

func TestMemoryStoreUpdateNotArrayLeavesDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, UsersCollection, "a", Document{"following": "oops", "bio": "old"}))

	err := s.Update(ctx, UsersCollection, "a", SetField("bio", "new"), AddToSet("following", "b"))
	assert.ErrorIs(t, err, ErrNotArray)

	doc, err := s.Get(ctx, UsersCollection, "a")
	require.NoError(t, err)
	assert.Equal(t, "old", doc["bio"])
	assert.Equal(t, "oops", doc["following"])
}

func TestStringSet(t *testing.T) {
	assert.Equal(t, []string{}, StringSet(nil))
	assert.Equal(t, []string{}, StringSet("not an array"))
	assert.Equal(t, []string{"a", "b"}, StringSet(primitive.A{"a", 3, "b"}))
	assert.Equal(t, []string{"a"}, StringSet([]any{"a"}))
}

func TestDecode(t *testing.T) {
	var out struct {
		Name  string   `bson:"name"`
		Items []string `bson:"items"`
	}
	require.NoError(t, Decode(Document{"name": "n", "items": primitive.A{"x"}}, &out))
	assert.Equal(t, "n", out.Name)
	assert.Equal(t, []string{"x"}, out.Items)
}
