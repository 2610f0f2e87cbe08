package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog records one admin write request. Entries are never updated.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID    primitive.ObjectID `bson:"actorId" json:"actorId"`
	ActorEmail string             `bson:"actorEmail" json:"actorEmail"`
	Method     string             `bson:"method" json:"method"`
	Path       string             `bson:"path" json:"path"`
	Status     int                `bson:"status" json:"status"`
	IP         string             `bson:"ip" json:"ip"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
