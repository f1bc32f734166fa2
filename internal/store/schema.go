package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repos.
const (
	tableInteractions = "interactions"
	tableProgress     = "student_progress"
	tableGamification = "gamification"
	tableLLMRequests  = "llm_requests"
)

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}
}

func interactionsTable() *schema.Table {
	t := schema.NewTable(tableInteractions).
		AddPrimary(idColumn()).
		AddColumn(&schema.Column{Name: "student_name", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "grade", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "subject", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "question", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "answer", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "resources", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "feedback", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "feedback_comment", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "created_at", Type: field.TypeString})
	t.AddIndex("interactions_student_grade_created", false, []string{"student_name", "grade", "created_at"})
	return t
}

func progressTable() *schema.Table {
	t := schema.NewTable(tableProgress).
		AddPrimary(idColumn()).
		AddColumn(&schema.Column{Name: "student_name", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "subject", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "topic", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "difficulty_level", Type: field.TypeInt}).
		AddColumn(&schema.Column{Name: "mastery_score", Type: field.TypeFloat64}).
		AddColumn(&schema.Column{Name: "struggle_areas", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "learning_style", Type: field.TypeString, Default: "visual"}).
		AddColumn(&schema.Column{Name: "last_session", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "total_sessions", Type: field.TypeInt, Default: 1})
	t.AddIndex("student_progress_student_subject_topic", true, []string{"student_name", "subject", "topic"})
	return t
}

func gamificationTable() *schema.Table {
	return schema.NewTable(tableGamification).
		AddPrimary(idColumn()).
		AddColumn(&schema.Column{Name: "student_name", Type: field.TypeString, Unique: true}).
		AddColumn(&schema.Column{Name: "xp_points", Type: field.TypeInt64, Default: 0}).
		AddColumn(&schema.Column{Name: "streak_days", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "badges", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "last_activity", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "daily_interactions", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "version", Type: field.TypeInt64, Default: 1})
}

func llmRequestsTable() *schema.Table {
	return schema.NewTable(tableLLMRequests).
		AddPrimary(idColumn()).
		AddColumn(&schema.Column{Name: "created_at", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "provider", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "model", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "purpose", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0}).
		AddColumn(&schema.Column{Name: "success", Type: field.TypeBool, Default: true}).
		AddColumn(&schema.Column{Name: "error_message", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "request_body", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "response_body", Type: field.TypeString, Nullable: true})
}

// Tables returns every table the store manages, in creation order.
func Tables() []*schema.Table {
	return []*schema.Table{
		interactionsTable(),
		progressTable(),
		gamificationTable(),
		llmRequestsTable(),
	}
}
