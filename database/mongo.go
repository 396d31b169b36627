package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/scauction/foreclosure-backend/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName      = "auctionitems"
	defaultDatabaseName = "auctions"

	connectTimeout = 5 * time.Second
)

// Store is a run-scoped handle on the auctionitems collection. Open one per
// pipeline run and Close it on every exit path.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Open connects to MongoDB and binds the auction items collection. The
// county ops environment fronts Mongo with a TLS terminator using internal
// certificates, so certificate verification is disabled.
func Open(ctx context.Context, uri string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(connectTimeout).
		SetTLSConfig(&tls.Config{InsecureSkipVerify: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	databaseName := databaseNameFromURI(uri)
	logrus.WithFields(logrus.Fields{
		"component":  "Store",
		"database":   databaseName,
		"collection": collectionName,
	}).Info("Connected to MongoDB")

	return &Store{
		client:     client,
		collection: client.Database(databaseName).Collection(collectionName),
	}, nil
}

// databaseNameFromURI extracts the default database from the connection
// string path, falling back to a fixed name when none is present.
func databaseNameFromURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return defaultDatabaseName
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if name == "" {
		return defaultDatabaseName
	}
	return name
}

// FindExisting returns all records scoped to the given state and county.
func (s *Store) FindExisting(ctx context.Context, state, county string) ([]models.ForeclosureRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"state": state, "county": county})
	if err != nil {
		return nil, fmt.Errorf("failed to query existing auction items: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.ForeclosureRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode existing auction items: %w", err)
	}
	return records, nil
}

// UpdateAuctionFields refreshes only the per-run mutable fields of a stored
// record; every other extracted field is creation-only.
func (s *Store) UpdateAuctionFields(ctx context.Context, id primitive.ObjectID, auctionDate time.Time, active bool, updateDate time.Time) error {
	_, err := s.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"auctionDate": auctionDate,
			"active":      active,
			"updateDate":  updateDate,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update auction item %s: %w", id.Hex(), err)
	}
	return nil
}

// Insert stores a new record.
func (s *Store) Insert(ctx context.Context, record models.ForeclosureRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert auction item %s: %w", record.CaseNumber, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
