package admin

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestNewService(t *testing.T) {
	var db *mongo.Database

	s := NewService(db, zap.NewNop().Sugar())
	if s == nil {
		t.Fatal("NewService returned nil")
	}
	if s.db != db {
		t.Error("service does not hold the given database")
	}
}
