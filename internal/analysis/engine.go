package analysis

import (
	"context"
	"database/sql"

	"github.com/yhzhou/mobility-backend-go/internal/repository"
)

// Analyzer is the interface every pipeline stage implements
type Analyzer interface {
	// Analyze runs the stage for the given task. Params carry the stage
	// options as decoded JSON (thresholds, metric names, durations).
	Analyze(ctx context.Context, taskID int64, params map[string]interface{}) error

	// GetName returns the skill name of the analyzer
	GetName() string
}

// BaseAnalyzer provides the shared task-tracking plumbing
type BaseAnalyzer struct {
	DB    *sql.DB
	Name  string
	Tasks *repository.AnalysisTaskRepository
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		DB:    db,
		Name:  name,
		Tasks: repository.NewAnalysisTaskRepository(db),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(db *sql.DB) Analyzer

// AnalyzerRegistry maps skill names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a skill name.
// Analyzer packages call this from init().
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	AnalyzerRegistry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, db *sql.DB) Analyzer {
	factory, ok := AnalyzerRegistry[skillName]
	if !ok {
		return nil
	}
	return factory(db)
}

// IsKnownSkill checks whether an analyzer is registered for the skill
func IsKnownSkill(skillName string) bool {
	_, ok := AnalyzerRegistry[skillName]
	return ok
}
