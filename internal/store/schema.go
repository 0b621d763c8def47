package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableEstimatorState = "estimator_states"
	tableAnswerSamples  = "answer_samples"
)

var (
	estimatorStateColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Size: 255},
		{Name: "document", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeTime},
	}
	estimatorStateTable = &schema.Table{
		Name:       tableEstimatorState,
		Columns:    estimatorStateColumns,
		PrimaryKey: []*schema.Column{estimatorStateColumns[0]},
	}

	answerSampleColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_key", Type: field.TypeString, Size: 255},
		{Name: "category", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeBool},
		{Name: "reaction_ms", Type: field.TypeFloat64},
		{Name: "recorded_at", Type: field.TypeTime},
	}
	answerSampleTable = &schema.Table{
		Name:       tableAnswerSamples,
		Columns:    answerSampleColumns,
		PrimaryKey: []*schema.Column{answerSampleColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "answersample_learner_key_id",
				Columns: []*schema.Column{answerSampleColumns[1], answerSampleColumns[0]},
			},
		},
	}

	// tables lists every table managed by the SQLite backend.
	tables = []*schema.Table{
		estimatorStateTable,
		answerSampleTable,
	}
)
