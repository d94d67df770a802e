package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get existing", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "journal:a@example.com"},
			{Key: "value", Value: []byte(`[]`)},
			{Key: "version", Value: int64(2)},
			{Key: "updated_at", Value: time.Now()},
		}))

		rec, err := store.Get(context.Background(), "journal:a@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, []byte(`[]`), rec.Value)
		assert.Equal(mt, int64(2), rec.Version)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.Get(context.Background(), "journal:none@example.com")
		assert.ErrorIs(mt, err, ErrRecordNotFound)
	})

	mt.Run("insert new record", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		version, err := store.CompareAndSwap(context.Background(), "k", 0, []byte(`v`))
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), version)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := store.CompareAndSwap(context.Background(), "k", 0, []byte(`v`))
		assert.ErrorIs(mt, err, ErrVersionMismatch)
	})

	mt.Run("update matching version", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		version, err := store.CompareAndSwap(context.Background(), "k", 3, []byte(`v`))
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), version)
	})

	mt.Run("update stale version", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		_, err := store.CompareAndSwap(context.Background(), "k", 3, []byte(`v`))
		assert.ErrorIs(mt, err, ErrVersionMismatch)
	})

	mt.Run("close without client", func(mt *mtest.T) {
		store := newMongoStoreForCollection(mt.Coll)
		assert.NoError(mt, store.Close())
	})
}
