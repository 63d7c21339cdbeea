package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)
			if err := migration.Up(m.db); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}
			if err := m.setVersion(migration.Version); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.M{"name": "schema_migrations"})
	if err != nil {
		return err
	}
	if len(collections) == 0 {
		return m.db.CreateCollection(ctx, "schema_migrations")
	}
	return nil
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err := m.db.Collection("schema_migrations").FindOne(ctx, bson.M{}, opts).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.Version, nil
}

func (m *Migrator) setVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.db.Collection("schema_migrations").InsertOne(ctx, bson.M{
		"version":    version,
		"applied_at": time.Now(),
	})
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "ledger and identity indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				// The unique reference index is what makes ledger writes
				// idempotent; everything downstream depends on it.
				_, err := db.Collection("transactions").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "reference", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "booking_id", Value: 1}}},
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "referral_code", Value: 1}},
						Options: options.Index().SetUnique(true).SetSparse(true),
					},
					{
						Keys:    bson.D{{Key: "email", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
				})
				return err
			},
			Down: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if _, err := db.Collection("transactions").Indexes().DropAll(ctx); err != nil {
					return err
				}
				_, err := db.Collection("users").Indexes().DropAll(ctx)
				return err
			},
		},
		{
			Version:     2,
			Description: "booking, withdrawal and referral indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("bookings").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "status", Value: 1}}},
					{
						Keys:    bson.D{{Key: "booking_number", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("withdrawals").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "reference", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "status", Value: 1}}},
				})
				if err != nil {
					return err
				}

				// One edge per (referred, level) keeps the chain well formed.
				_, err = db.Collection("referrals").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys:    bson.D{{Key: "referred_id", Value: 1}, {Key: "level", Value: 1}},
						Options: options.Index().SetUnique(true),
					},
					{Keys: bson.D{{Key: "referrer_id", Value: 1}}},
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("bank_accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys: bson.D{{Key: "user_id", Value: 1}},
				})
				if err != nil {
					return err
				}

				_, err = db.Collection("services").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys: bson.D{{Key: "provider_id", Value: 1}},
				})
				return err
			},
			Down: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				for _, name := range []string{"bookings", "withdrawals", "referrals", "bank_accounts", "services"} {
					if _, err := db.Collection(name).Indexes().DropAll(ctx); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
