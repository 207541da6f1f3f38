package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

// Rule is a CEL condition over the variable `message` (the latest user
// message) that decides Label when it evaluates to true.
type Rule struct {
	Condition string       `mapstructure:"condition" json:"condition"`
	Label     statex.Label `mapstructure:"label" json:"label"`
}

// RuleFile is the on-disk shape of a rules file.
type RuleFile struct {
	Rules []Rule `mapstructure:"rules" json:"rules"`
}

type compiledRule struct {
	index   int
	rule    Rule
	program cel.Program
}

// Rules is an ordered, compiled rule list. The zero value matches nothing.
type Rules struct {
	compiled []compiledRule
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("message", cel.StringType),
		ext.Strings(),
	)
}

// CompileRules validates labels and compiles conditions. Conditions that fail
// to compile are logged and dropped; an unknown label is a hard error.
func CompileRules(rules []Rule) (*Rules, error) {
	out := &Rules{}
	if len(rules) == 0 {
		return out, nil
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	for i, r := range rules {
		label, ok := statex.ParseLabel(string(r.Label))
		if !ok {
			return nil, fmt.Errorf("%w: rule %d has unknown label %q", contractx.ErrValidation, i, r.Label)
		}
		r.Label = label

		condition := strings.TrimSpace(r.Condition)
		ast, issues := env.Compile(condition)
		if issues != nil && issues.Err() != nil {
			log.Warn().Int("rule_index", i).Str("condition", condition).Err(issues.Err()).Msg("classifier rule does not compile, skipping")
			continue
		}
		program, err := env.Program(ast)
		if err != nil {
			log.Warn().Int("rule_index", i).Str("condition", condition).Err(err).Msg("classifier rule program failed, skipping")
			continue
		}
		out.compiled = append(out.compiled, compiledRule{index: i, rule: r, program: program})
	}
	return out, nil
}

func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.compiled)
}

// Match returns the label of the first rule whose condition is true.
func (r *Rules) Match(ctx context.Context, message string) (statex.Label, bool) {
	if r == nil {
		return "", false
	}

	vars := map[string]any{"message": message}
	for _, c := range r.compiled {
		val, _, err := c.program.ContextEval(ctx, vars)
		if err != nil {
			log.Warn().Int("rule_index", c.index).Str("condition", c.rule.Condition).Err(err).Msg("classifier rule evaluation failed")
			continue
		}
		matched, ok := val.Value().(bool)
		if !ok {
			log.Warn().Int("rule_index", c.index).Str("condition", c.rule.Condition).Interface("result", val.Value()).Msg("classifier rule did not return a boolean")
			continue
		}
		if matched {
			return c.rule.Label, true
		}
	}
	return "", false
}
