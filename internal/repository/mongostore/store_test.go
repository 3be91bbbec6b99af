package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"flashtans/internal/domain"
	"flashtans/internal/repository"
)

func TestProductFilter(t *testing.T) {
	assert.Empty(t, productFilter(repository.ProductFilter{}))

	min, max := 10.0, 20.0
	q := productFilter(repository.ProductFilter{NameSubstring: "a.b", MinPrice: &min, MaxPrice: &max})
	assert.Equal(t, bson.M{"$regex": `a\.b`, "$options": "i"}, q["name"])
	assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 20.0}, q["price"])

	q = productFilter(repository.ProductFilter{MaxPrice: &max})
	assert.Equal(t, bson.M{"$lte": 20.0}, q["price"])
	assert.NotContains(t, q, "name")
}

func TestOrderDocKeepsLineSnapshots(t *testing.T) {
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	o := domain.Order{ID: "o1", CustomerID: "c1", Total: 15, Status: domain.OrderStatusPending, CreatedAt: ts, UpdatedAt: ts,
		Items: []domain.OrderLine{{ProductID: "p1", ProductName: "A", Price: 5, Quantity: 3, Subtotal: 15}}}

	raw, err := bson.Marshal(toOrderDoc(o))
	assert.NoError(t, err)
	var fields bson.M
	assert.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "c1", fields["customer_id"])
	assert.Contains(t, fields, "items")

	var back orderDoc
	assert.NoError(t, bson.Unmarshal(raw, &back))
	got := back.toDomain()
	assert.Equal(t, o.Items, got.Items)
	assert.True(t, got.CreatedAt.Equal(ts))
}
