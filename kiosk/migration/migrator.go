// Package migration imports drops and codes from the legacy MongoDB-backed
// kiosk into Postgres.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TableStats struct {
	Read     int
	Imported int
	Skipped  int
}

type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int

	stats     map[string]*TableStats
	startTime time.Time
}

func NewMigrator(pgDB *bun.DB, client *mongo.Client, dbName string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   client.Database(dbName),
		batchSize: 1000,
		stats:     make(map[string]*TableStats),
	}
}

// SetBatchSize overrides the default batch size for inserts (useful for poolers/timeouts)
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// MigrateAll imports drops first so the codes' foreign references resolve.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.startTime = time.Now()
	logProgress("Starting legacy kiosk migration")

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"drops", m.MigrateDrops},
		{"codes", m.MigrateCodes},
	}

	for _, step := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		logProgress(fmt.Sprintf("Completed migration step: %s", step.name))
	}

	m.logFinalStats()
	return nil
}

// MigrateDrops imports the legacy `events` collection.
func (m *Migrator) MigrateDrops(ctx context.Context) error {
	stats := m.tableStats("drops")

	cur, err := m.mongoDB.Collection("events").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query events collection: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.Drop
	seen := make(map[string]bool)

	for cur.Next(ctx) {
		var md MongoDrop
		if err := cur.Decode(&md); err != nil {
			stats.Skipped++
			logProgress(fmt.Sprintf("Undecodable event document, skipping: %v", err))
			continue
		}
		stats.Read++

		if md.ID == "" || seen[md.ID] {
			stats.Skipped++
			continue
		}
		seen[md.ID] = true

		batch = append(batch, convertDrop(md))
		if len(batch) >= m.batchSize {
			if err := m.batchInsertDrops(ctx, batch, stats); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.batchInsertDrops(ctx, batch, stats); err != nil {
			return err
		}
	}

	logProgress(fmt.Sprintf("Drops migration completed: %d read, %d imported, %d skipped",
		stats.Read, stats.Imported, stats.Skipped))
	return nil
}

// MigrateCodes imports the legacy `codes` collection. Codes referencing a
// drop that did not survive the drops step are skipped, not failed.
func (m *Migrator) MigrateCodes(ctx context.Context) error {
	stats := m.tableStats("codes")

	var dropIDs []string
	if err := m.pgDB.NewSelect().
		Model((*models.Drop)(nil)).
		Column("id").
		Scan(ctx, &dropIDs); err != nil {
		return fmt.Errorf("failed to list imported drops: %w", err)
	}
	validDrops := make(map[string]bool, len(dropIDs))
	for _, id := range dropIDs {
		validDrops[id] = true
	}

	cur, err := m.mongoDB.Collection("codes").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query codes collection: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.Code
	for cur.Next(ctx) {
		var mc MongoCode
		if err := cur.Decode(&mc); err != nil {
			stats.Skipped++
			continue
		}
		stats.Read++

		if mc.ID == "" || !validDrops[mc.Event] {
			stats.Skipped++
			continue
		}

		batch = append(batch, convertCode(mc))
		if len(batch) >= m.batchSize {
			if err := m.batchInsertCodes(ctx, batch, stats); err != nil {
				return err
			}
			logProgress(fmt.Sprintf("Processed %d codes, skipped %d so far", stats.Imported, stats.Skipped))
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.batchInsertCodes(ctx, batch, stats); err != nil {
			return err
		}
	}

	logProgress(fmt.Sprintf("Codes migration completed: %d read, %d imported, %d skipped",
		stats.Read, stats.Imported, stats.Skipped))
	return nil
}

func (m *Migrator) batchInsertDrops(ctx context.Context, drops []*models.Drop, stats *TableStats) error {
	start := time.Now()

	_, err := m.pgDB.NewInsert().
		Model(&drops).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert drops batch: %w", err)
	}

	stats.Imported += len(drops)
	slog.Info("Batch insert of drops completed",
		slog.Int("count", len(drops)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (m *Migrator) batchInsertCodes(ctx context.Context, codes []*models.Code, stats *TableStats) error {
	start := time.Now()

	_, err := m.pgDB.NewInsert().
		Model(&codes).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		// Split on failure so one poisoned row doesn't sink the batch
		if len(codes) > 1 {
			mid := len(codes) / 2
			if err := m.batchInsertCodes(ctx, codes[:mid], stats); err != nil {
				return err
			}
			return m.batchInsertCodes(ctx, codes[mid:], stats)
		}
		stats.Skipped++
		logProgress(fmt.Sprintf("Failed to insert code %s, skipping: %v", codes[0].ID, err))
		return nil
	}

	stats.Imported += len(codes)
	slog.Debug("Batch insert of codes completed",
		slog.Int("count", len(codes)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (m *Migrator) tableStats(name string) *TableStats {
	if m.stats[name] == nil {
		m.stats[name] = &TableStats{}
	}
	return m.stats[name]
}

func (m *Migrator) logFinalStats() {
	for table, stats := range m.stats {
		slog.Info("Migration table summary",
			slog.String("table", table),
			slog.Int("read", stats.Read),
			slog.Int("imported", stats.Imported),
			slog.Int("skipped", stats.Skipped))
	}
	logProgress(fmt.Sprintf("Migration completed in %s", time.Since(m.startTime)))
}

func logProgress(msg string) {
	slog.Info(msg, slog.String("type", "db"))
}
