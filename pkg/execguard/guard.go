// Package execguard evaluates the optional CEL precondition an L3-Execution
// proposal carries under its AST's "guard" key. Evaluation runs under a
// deterministic profile: no time or randomness functions, a hard cost
// limit, and compiled programs cached by expression.
package execguard

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// GuardKey is the AST key holding the precondition expression.
const GuardKey = "guard"

// Functions whose results vary by evaluation time or environment. A guard
// mentioning one is rejected before compilation.
var bannedFunctions = []string{"now", "timestamp", "duration", "random", "uuid"}

// Guard compiles and evaluates execution preconditions.
type Guard struct {
	env      *cel.Env
	mu       sync.RWMutex
	prgCache map[string]cel.Program
}

// New creates a guard evaluator with the proposal environment.
func New() (*Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("proposal", cel.DynType),
		cel.Variable("ast", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("execguard: create CEL environment: %w", err)
	}
	return &Guard{env: env, prgCache: make(map[string]cel.Program)}, nil
}

// Extract returns the guard expression from a proposal's AST, if present.
func Extract(logicAST string) (string, bool) {
	var ast map[string]json.RawMessage
	if err := json.Unmarshal([]byte(logicAST), &ast); err != nil {
		return "", false
	}
	raw, ok := ast[GuardKey]
	if !ok {
		return "", false
	}
	var expr string
	if err := json.Unmarshal(raw, &expr); err != nil {
		return "", false
	}
	return expr, expr != ""
}

// Check evaluates the proposal's guard. Proposals without a guard pass. A
// guard that fails validation, fails to compile, errors at evaluation, or
// evaluates false blocks execution.
func (g *Guard) Check(p contracts.Proposal) error {
	expr, ok := Extract(p.LogicAST)
	if !ok {
		return nil
	}

	for _, fn := range bannedFunctions {
		if matched, _ := regexp.MatchString(`\b`+fn+`\s*\(`, expr); matched {
			return fmt.Errorf("%w: guard uses nondeterministic function %q", contracts.ErrValidation, fn)
		}
	}

	prg, err := g.program(expr)
	if err != nil {
		return err
	}

	var ast map[string]interface{}
	if err := json.Unmarshal([]byte(p.LogicAST), &ast); err != nil {
		return fmt.Errorf("%w: guard AST does not parse", contracts.ErrValidation)
	}

	input := map[string]interface{}{
		"proposal": map[string]interface{}{
			"id":       p.ID,
			"proposer": p.Proposer,
			"layer":    string(p.Layer),
			"text":     p.Text,
		},
		"ast": ast,
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return fmt.Errorf("%w: guard evaluation failed: %v", contracts.ErrValidation, err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return fmt.Errorf("%w: guard result is not a boolean", contracts.ErrValidation)
	}
	if !allowed {
		return fmt.Errorf("%w: execution guard denied", contracts.ErrValidation)
	}
	return nil
}

func (g *Guard) program(expr string) (cel.Program, error) {
	g.mu.RLock()
	prg, hit := g.prgCache[expr]
	g.mu.RUnlock()
	if hit {
		return prg, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if prg, hit = g.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := g.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: guard compile: %v", contracts.ErrValidation, issues.Err())
	}
	prg, err := g.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10_000),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: guard program: %v", contracts.ErrValidation, err)
	}
	g.prgCache[expr] = prg
	return prg, nil
}
