package audit

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Rule is a caller-supplied CEL boolean expression evaluated against a
// flat snapshot of this run's scalar Request fields (agentKeyAlgorithm,
// dnsRequired, dnsStrict). A false result is reported as a risk finding
// labelled Label; Expr never runs against document content, only
// installation-policy scalars, so a misbehaving rule cannot leak
// document data into a finding's Detail.
type Rule struct {
	Label string
	Expr  string
}

func ruleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("agentKeyAlgorithm", cel.StringType),
		cel.Variable("dnsRequired", cel.BoolType),
		cel.Variable("dnsStrict", cel.BoolType),
	)
}

// checkRules compiles and evaluates every req.Rules expression against
// req's scalar fields, returning one risk finding per rule that
// evaluates to false. A rule that fails to compile or evaluate is
// reported as the sole error, aborting the whole audit run, since a
// malformed rule means the operator's policy intent could not be
// checked at all rather than that it failed.
func checkRules(req Request) ([]Finding, error) {
	if len(req.Rules) == 0 {
		return nil, nil
	}

	env, err := ruleEnv()
	if err != nil {
		return nil, fmt.Errorf("audit: build rule environment: %w", err)
	}

	input := map[string]any{
		"agentKeyAlgorithm": req.Algorithm,
		"dnsRequired":       req.DNSRequired,
		"dnsStrict":         req.DNSStrict,
	}

	var findings []Finding
	for _, rule := range req.Rules {
		ast, issues := env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("audit: compile rule %q: %w", rule.Label, issues.Err())
		}
		prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
		if err != nil {
			return nil, fmt.Errorf("audit: build program for rule %q: %w", rule.Label, err)
		}
		out, _, err := prg.Eval(input)
		if err != nil {
			return nil, fmt.Errorf("audit: evaluate rule %q: %w", rule.Label, err)
		}
		allowed, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("audit: rule %q did not evaluate to a bool", rule.Label)
		}
		if !allowed {
			findings = append(findings, finding("custom_rule", SeverityWarn,
				fmt.Sprintf("rule %q: %s evaluated false", rule.Label, rule.Expr)))
		}
	}
	return findings, nil
}
