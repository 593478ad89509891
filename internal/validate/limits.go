package validate

import "regexp"

const (
	DefaultMaxContentBytes = 1_048_576
	DefaultMaxStringChars  = 100_000
	DefaultProjectMaxLen   = 100
	DefaultBranchMaxLen    = 250
)

var (
	defaultProjectPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	defaultBranchPattern  = regexp.MustCompile(`^[A-Za-z0-9/_-]+$`)
)

// Limits are the fixed ceilings and patterns a Validator checks against.
// They are copied when a Validator is built and never change afterwards.
type Limits struct {
	MaxContentBytes     int
	MaxStringChars      int
	EmbeddingDimensions []int
	ProjectMaxLen       int
	ProjectPattern      *regexp.Regexp
	BranchMaxLen        int
	BranchPattern       *regexp.Regexp
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{
		MaxContentBytes:     DefaultMaxContentBytes,
		MaxStringChars:      DefaultMaxStringChars,
		EmbeddingDimensions: []int{384, 512, 768, 1024, 1536},
		ProjectMaxLen:       DefaultProjectMaxLen,
		ProjectPattern:      defaultProjectPattern,
		BranchMaxLen:        DefaultBranchMaxLen,
		BranchPattern:       defaultBranchPattern,
	}
}

// withDefaults fills zero fields from DefaultLimits and detaches the slice.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxContentBytes <= 0 {
		l.MaxContentBytes = d.MaxContentBytes
	}
	if l.MaxStringChars <= 0 {
		l.MaxStringChars = d.MaxStringChars
	}
	if len(l.EmbeddingDimensions) == 0 {
		l.EmbeddingDimensions = d.EmbeddingDimensions
	} else {
		l.EmbeddingDimensions = append([]int(nil), l.EmbeddingDimensions...)
	}
	if l.ProjectMaxLen <= 0 {
		l.ProjectMaxLen = d.ProjectMaxLen
	}
	if l.ProjectPattern == nil {
		l.ProjectPattern = d.ProjectPattern
	}
	if l.BranchMaxLen <= 0 {
		l.BranchMaxLen = d.BranchMaxLen
	}
	if l.BranchPattern == nil {
		l.BranchPattern = d.BranchPattern
	}
	return l
}

func (l Limits) dimensionSupported(n int) bool {
	for _, d := range l.EmbeddingDimensions {
		if d == n {
			return true
		}
	}
	return false
}
