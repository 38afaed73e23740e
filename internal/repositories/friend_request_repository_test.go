package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPairKeyIsDirectionIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.Equal(t, PairKey(a, b), PairKey(b, a))
}

func TestPairKeyOrdersLowerHexFirst(t *testing.T) {
	a, _ := primitive.ObjectIDFromHex("000000000000000000000001")
	b, _ := primitive.ObjectIDFromHex("000000000000000000000002")

	want := "000000000000000000000001:000000000000000000000002"
	assert.Equal(t, want, PairKey(a, b))
	assert.Equal(t, want, PairKey(b, a))
}

func TestPairKeyDistinguishesPairs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	assert.NotEqual(t, PairKey(a, b), PairKey(a, c))
}
