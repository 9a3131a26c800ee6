package schema

// DefineSchemaMigrationsTable 定义schema_migrations表结构（迁移版本记录）
func DefineSchemaMigrationsTable() *TableBuilder {
	return NewTable("schema_migrations").
		Column("version VARCHAR(64) PRIMARY KEY").
		Column("applied_at BIGINT NOT NULL")
}

// DefineSessionsTable 定义sessions表结构
// session_key 存储会话键的SHA256哈希
func DefineSessionsTable() *TableBuilder {
	return NewTable("sessions").
		Column("session_key VARCHAR(64) PRIMARY KEY").
		Column("session_data TEXT NOT NULL").
		Column("expire_date BIGINT NOT NULL").
		Index("idx_sessions_expire_date", "expire_date")
}

// AllTables 迁移顺序
func AllTables() []func() *TableBuilder {
	return []func() *TableBuilder{
		DefineSchemaMigrationsTable, // 迁移版本表必须最先创建
		DefineSessionsTable,
	}
}
