package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/rushteam/novelrec/core"
)

// DefaultTable 是 SQLite 目录表的默认表名。
const DefaultTable = "novels"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLite 从 SQLite 表加载目录，按 rowid 保持插入顺序。
//
// 表结构与 novels.csv 一致：id, title, author, tags, platform, rating（可为 NULL）。
func LoadSQLite(ctx context.Context, dsn, table string) (*Memory, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: open sqlite %s: %v", dsn, err))
	}
	defer db.Close()
	return QueryNovels(ctx, db, table)
}

// QueryNovels 在已打开的连接上读取目录表。
func QueryNovels(ctx context.Context, db *sql.DB, table string) (*Memory, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, invalidInput(fmt.Sprintf("catalog: invalid table name %q", table))
	}

	query := fmt.Sprintf(`SELECT CAST(id AS TEXT), COALESCE(title, ''), COALESCE(author, ''),
		COALESCE(tags, ''), COALESCE(platform, ''), rating FROM %s ORDER BY rowid`, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: query %s: %v", table, err))
	}
	defer rows.Close()

	var novels []core.Novel
	for rows.Next() {
		var (
			n      core.Novel
			rating sql.NullFloat64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Author, &n.Tags, &n.Platform, &rating); err != nil {
			return nil, invalidInput(fmt.Sprintf("catalog: scan %s: %v", table, err))
		}
		if rating.Valid {
			n.Rating = core.RatingOf(rating.Float64)
		}
		novels = append(novels, n)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: iterate %s: %v", table, err))
	}
	return New(novels)
}
