package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAutoMigrateIsRepeatable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db), "重复迁移不报错")

	for _, table := range []string{"asset_snapshots", "evidence_observations", "assessment_runs", "assessment_parameter_results", "assessment_results"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("assessment_results", "idx_assessment_results_run_status"))
	assert.True(t, db.Migrator().HasIndex("evidence_observations", "uidx_evidence_seq"))

	assert.NoError(t, EnsureSchema(db, "metahub"), "非postgres方言跳过")
}
