package store

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// kvColumns holds the columns for the "kv" table.
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	kvTable = &schema.Table{
		Name:       "kv",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	// requestEventsColumns holds the columns for the "request_events" table.
	requestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "operation", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "status_code", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	requestEventsTable = &schema.Table{
		Name:       "request_events",
		Columns:    requestEventsColumns,
		PrimaryKey: []*schema.Column{requestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "requestevent_timestamp", Columns: []*schema.Column{requestEventsColumns[2]}},
			{Name: "requestevent_operation", Columns: []*schema.Column{requestEventsColumns[3]}},
		},
	}

	// quizResultsColumns holds the columns for the "quiz_results" table.
	quizResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "correct", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
	}
	quizResultsTable = &schema.Table{
		Name:       "quiz_results",
		Columns:    quizResultsColumns,
		PrimaryKey: []*schema.Column{quizResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizresult_timestamp", Columns: []*schema.Column{quizResultsColumns[2]}},
		},
	}

	// sequenceColumns holds the columns for the single-row "global_sequence" table.
	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	tables = []*schema.Table{kvTable, requestEventsTable, quizResultsTable, sequenceTable}
)

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, db *sql.DB) error {
	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
