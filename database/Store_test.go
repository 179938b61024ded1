package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behaviour every Store must share. Collections
// are randomised so runs against a real database do not collide.
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	users := "users_" + uuid.NewString()
	profiles := "profile_" + uuid.NewString()

	t.Run("missing", func(t *testing.T) {
		_, err := s.Get(ctx, users, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, users, "nobody", SetField("x", 1)), ErrNotFound)

		docs, err := s.Query(ctx, users)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("sets", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, users, "A", Document{
			"following": []string{},
			"followers": []string{},
			"createdAt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, s.Update(ctx, users, "A", AddToSet("following", "B")))
		require.NoError(t, s.Update(ctx, users, "A", AddToSet("following", "B")))
		require.NoError(t, s.Update(ctx, users, "A", AddToSet("following", "C")))
		require.NoError(t, s.Update(ctx, users, "A", RemoveFromSet("following", "B")))

		doc, err := s.Get(ctx, users, "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"C"}, StringSet(doc["following"]))
		assert.Empty(t, StringSet(doc["followers"]))
		assert.Equal(t, "A", doc["_id"])
	})

	t.Run("query", func(t *testing.T) {
		for _, p := range []Document{
			{"userId": "u1", "username": "alice", "isProfilePublic": true},
			{"userId": "u2", "username": "bob", "isProfilePublic": false},
			{"userId": "u3", "username": "carol", "isProfilePublic": true},
		} {
			require.NoError(t, s.Set(ctx, profiles, p["userId"].(string), p))
		}

		all, err := s.Query(ctx, profiles)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		one, err := s.Query(ctx, profiles, Eq("username", "bob"))
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, "u2", one[0]["userId"])

		some, err := s.Query(ctx, profiles, In("userId", []string{"u1", "u3"}))
		require.NoError(t, err)
		assert.Len(t, some, 2)
	})

	t.Run("create", func(t *testing.T) {
		id, err := s.Create(ctx, profiles, Document{"userId": "u4"})
		require.NoError(t, err)
		doc, err := s.Get(ctx, profiles, id)
		require.NoError(t, err)
		assert.Equal(t, "u4", doc["userId"])
	})
}

func TestMemoryStoreContract(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestPostgresStoreContract(t *testing.T) {
	url := os.Getenv("THREADHIVE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("THREADHIVE_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("THREADHIVE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("THREADHIVE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := DBinstance(ctx, uri)
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("threadhive_test")
	defer db.Drop(ctx)
	testStoreContract(t, NewMongoStore(db))
}
