package scenario

import (
	"github.com/walletgate/walletgate/internal/model"
)

// Call defines the gated method call under test.
type Call struct {
	Wallet   string             `yaml:"wallet,omitempty"`
	Protocol *model.ProtocolRef `yaml:"protocol,omitempty"`
	Method   string             `yaml:"method"`
	Params   map[string]any     `yaml:"params,omitempty"`
}

// Case is one test case within a scenario.
type Case struct {
	Call   Call   `yaml:"call"`
	Expect string `yaml:"expect"`
}

// Scenario is a named collection of policy test cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Method   string `json:"method"`
	Scope    string `json:"scope"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
