package policyadapter

import (
	"context"
	"fmt"
	"strings"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
	"girthgov/internal/platform/config"

	"github.com/google/cel-go/cel"
)

const ruleCostLimit = 10000

type compiledRule struct {
	name    string
	level   entities.AutonomyLevel
	program cel.Program
}

// CELRules evaluates autonomy override rules in file order; the first rule
// whose expression is true decides the level.
type CELRules struct {
	rules []compiledRule
}

// NewCELRules compiles every rule up front so a bad policy file fails at boot.
func NewCELRules(rules []config.AutonomyRule) (*CELRules, error) {
	env, err := cel.NewEnv(
		cel.Variable("decision", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create autonomy rule environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			name = fmt.Sprintf("rule-%d", i)
		}
		level, err := entities.ParseAutonomyLevel(rule.Level)
		if err != nil {
			return nil, fmt.Errorf("autonomy rule %s: %w", name, err)
		}
		ast, issues := env.Compile(rule.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("autonomy rule %s: compile: %w", name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("autonomy rule %s: expression must be boolean, got %s", name, ast.OutputType())
		}
		program, err := env.Program(ast,
			cel.InterruptCheckFrequency(100),
			cel.CostLimit(ruleCostLimit),
		)
		if err != nil {
			return nil, fmt.Errorf("autonomy rule %s: program: %w", name, err)
		}
		compiled = append(compiled, compiledRule{name: name, level: level, program: program})
	}
	return &CELRules{rules: compiled}, nil
}

func (r *CELRules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

func (r *CELRules) Evaluate(ctx context.Context, input ports.AutonomyRuleInput) (entities.AutonomyLevel, bool, error) {
	if r == nil {
		return 0, false, nil
	}
	activation := map[string]any{
		"decision": map[string]any{
			"category":     string(input.Category),
			"severity":     int64(input.Severity),
			"confidence":   input.Confidence,
			"context_type": input.ContextType,
		},
	}
	for _, rule := range r.rules {
		out, _, err := rule.program.ContextEval(ctx, activation)
		if err != nil {
			return 0, false, fmt.Errorf("autonomy rule %s: %w", rule.name, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return 0, false, fmt.Errorf("autonomy rule %s: non-boolean result", rule.name)
		}
		if matched {
			return rule.level, true, nil
		}
	}
	return 0, false, nil
}

var _ ports.AutonomyRuleEvaluator = (*CELRules)(nil)
