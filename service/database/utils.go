package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// CheckSchemaExists schema 是否存在
func CheckSchemaExists(db *gorm.DB, schemaName string) bool {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", schemaName).Scan(&count)
	return count > 0
}

// EnsureSchema 在 postgres 上创建缺失的 schema，其他方言直接返回
func EnsureSchema(db *gorm.DB, schemaName string) error {
	if db.Dialector.Name() != "postgres" || schemaName == "" || schemaName == "public" {
		return nil
	}
	if CheckSchemaExists(db, schemaName) {
		return nil
	}

	// 使用双引号避免保留关键字问题
	createSchemaSQL := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS \"%s\";", schemaName)
	if err := db.Exec(createSchemaSQL).Error; err != nil {
		return fmt.Errorf("创建 schema %s 失败: %w", schemaName, err)
	}
	slog.Info("成功创建 schema", "schema", schemaName)
	return nil
}
