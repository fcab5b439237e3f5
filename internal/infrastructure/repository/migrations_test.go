package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMigrate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(mt, Migrate(context.Background(), mt.DB))
	})

	mt.Run("stops on the first failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Message: "index options conflict",
			Name:    "IndexOptionsConflict",
		}))
		err := Migrate(context.Background(), mt.DB)
		assert.ErrorContains(mt, err, "failed to create shop indexes")
	})
}

func TestCheckSchema(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "test." + ShopsCollection

	mt.Run("passes once migrated", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "name", Value: "_id_"}},
			bson.D{{Key: "name", Value: ShopDomainIndex}},
		))
		assert.NoError(mt, CheckSchema(context.Background(), mt.DB))
	})

	mt.Run("fails before migration", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "name", Value: "_id_"}},
		))
		err := CheckSchema(context.Background(), mt.DB)
		assert.ErrorContains(mt, err, "run cmd/migrate first")
	})
}
