package analysis

// FileInfo is one analysis file as seen by the chunk planner: a path plus
// its on-disk size. Content is read lazily by the archive builder.
type FileInfo struct {
	Path string
	Size int64
}

// Chunk is an ordered group of analysis files packaged into one archive for
// one upload call.
type Chunk struct {
	Files []FileInfo
}

// TotalSize sums the member file sizes.
func (c Chunk) TotalSize() int64 {
	var total int64
	for _, f := range c.Files {
		total += f.Size
	}
	return total
}

// Paths returns the member paths in chunk order.
func (c Chunk) Paths() []string {
	out := make([]string, len(c.Files))
	for i, f := range c.Files {
		out[i] = f.Path
	}
	return out
}

// TestSpec is one test case declared in a spec file.
type TestSpec struct {
	Name           string         `yaml:"Name"`
	ExpectedResult bool           `yaml:"ExpectedResult"`
	Log            map[string]any `yaml:"Log"`
}

// Spec is one detection definition parsed from a YAML spec file.
type Spec struct {
	AnalysisType string     `yaml:"AnalysisType"` // rule | policy
	RuleID       string     `yaml:"RuleID"`
	PolicyID     string     `yaml:"PolicyID"`
	Enabled      bool       `yaml:"Enabled"`
	Tests        []TestSpec `yaml:"Tests"`

	Filename string `yaml:"-"`
}

// DetectionID is the rule id when set, otherwise the policy id.
func (s *Spec) DetectionID() string {
	if s.RuleID != "" {
		return s.RuleID
	}
	return s.PolicyID
}

// MatcherName is the display name of the primary matcher function for the
// spec's detection kind.
func (s *Spec) MatcherName() string {
	if s.AnalysisType == "policy" {
		return "policy"
	}
	return "rule"
}
