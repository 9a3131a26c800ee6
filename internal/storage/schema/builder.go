package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect 数据库方言
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectMySQL
	DialectPostgres
)

// String 方言名称（与 database/sql 驱动名一致）
func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// TableBuilder 轻量级表构建器（方言无关）
type TableBuilder struct {
	name    string
	columns []string
	indexes []IndexDef
}

// IndexDef 索引定义
type IndexDef struct {
	Name string
	SQL  string
}

// NewTable 创建表构建器
func NewTable(name string) *TableBuilder {
	return &TableBuilder{name: name}
}

// Name 表名
func (b *TableBuilder) Name() string {
	return b.name
}

// Column 添加列定义（使用MySQL语法作为基准）
func (b *TableBuilder) Column(def string) *TableBuilder {
	b.columns = append(b.columns, def)
	return b
}

// Index 添加索引定义
func (b *TableBuilder) Index(name, columns string) *TableBuilder {
	b.indexes = append(b.indexes, IndexDef{
		Name: name,
		SQL:  fmt.Sprintf("CREATE INDEX %s ON %s(%s)", name, b.name, columns),
	})
	return b
}

// Build 按方言生成 DDL
func (b *TableBuilder) Build(d Dialect) string {
	switch d {
	case DialectMySQL:
		return b.BuildMySQL()
	case DialectPostgres:
		return b.BuildPostgres()
	default:
		return b.BuildSQLite()
	}
}

// Indexes 按方言返回索引语句
func (b *TableBuilder) Indexes(d Dialect) []IndexDef {
	if d == DialectMySQL {
		return b.GetIndexesMySQL()
	}
	// SQLite 与 PostgreSQL 都支持 IF NOT EXISTS
	return b.GetIndexesIfNotExists()
}

// BuildMySQL 生成MySQL DDL
func (b *TableBuilder) BuildMySQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ;",
		b.name,
		strings.Join(b.columns, ",\n\t"))
}

// BuildSQLite 生成SQLite DDL（类型转换）
func (b *TableBuilder) BuildSQLite() string {
	return b.buildConverted(mysqlToSQLite)
}

// BuildPostgres 生成PostgreSQL DDL（类型转换）
func (b *TableBuilder) BuildPostgres() string {
	return b.buildConverted(mysqlToPostgres)
}

func (b *TableBuilder) buildConverted(convert func(string) string) string {
	cols := make([]string, len(b.columns))
	for i, col := range b.columns {
		cols[i] = convert(col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);",
		b.name,
		strings.Join(cols, ",\n\t"))
}

var varcharPattern = regexp.MustCompile(`VARCHAR\(\d+\)`)

// mysqlToSQLite 类型转换（MySQL → SQLite）
func mysqlToSQLite(mysqlCol string) string {
	col := mysqlCol

	// 特殊模式先处理（避免部分匹配）
	col = strings.ReplaceAll(col, "BIGINT PRIMARY KEY AUTO_INCREMENT", "INTEGER PRIMARY KEY AUTOINCREMENT")
	col = strings.ReplaceAll(col, "INT PRIMARY KEY AUTO_INCREMENT", "INTEGER PRIMARY KEY AUTOINCREMENT")
	col = strings.ReplaceAll(col, "TINYINT", "INTEGER")

	col = replaceWord(col, "INT", "INTEGER")
	col = strings.ReplaceAll(col, "DOUBLE", "REAL")
	col = varcharPattern.ReplaceAllString(col, "TEXT")
	return col
}

// mysqlToPostgres 类型转换（MySQL → PostgreSQL）
func mysqlToPostgres(mysqlCol string) string {
	col := mysqlCol

	col = strings.ReplaceAll(col, "BIGINT PRIMARY KEY AUTO_INCREMENT", "BIGSERIAL PRIMARY KEY")
	col = strings.ReplaceAll(col, "INT PRIMARY KEY AUTO_INCREMENT", "SERIAL PRIMARY KEY")
	col = strings.ReplaceAll(col, "TINYINT", "SMALLINT")
	col = replaceWord(col, "DOUBLE", "DOUBLE PRECISION")
	col = strings.ReplaceAll(col, "`", `"`)
	return col
}

// replaceWord 替换单词（避免部分匹配）
func replaceWord(s, old, new string) string {
	words := strings.Fields(s)
	for i, word := range words {
		cleanWord := strings.TrimRight(word, ",")
		if cleanWord == old {
			words[i] = strings.Replace(word, old, new, 1)
		}
	}
	return strings.Join(words, " ")
}

// GetIndexesMySQL 获取MySQL索引创建语句
func (b *TableBuilder) GetIndexesMySQL() []IndexDef {
	return b.indexes
}

// GetIndexesIfNotExists 获取带 IF NOT EXISTS 的索引创建语句
func (b *TableBuilder) GetIndexesIfNotExists() []IndexDef {
	indexes := make([]IndexDef, len(b.indexes))
	for i, idx := range b.indexes {
		indexes[i] = IndexDef{
			Name: idx.Name,
			SQL:  strings.Replace(idx.SQL, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1),
		}
	}
	return indexes
}
