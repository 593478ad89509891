package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Content is implemented by the five content variants only.
type Content interface {
	// EntryType returns the discriminant this variant belongs to.
	EntryType() EntryType
	// Text renders the variant as plain text for search and embedding.
	Text() string

	sealed()
}

// TaskStateContent captures the state of an in-flight task.
type TaskStateContent struct {
	Description      string         `json:"description"`
	Goals            []string       `json:"goals"`
	Progress         float64        `json:"progress"`
	Context          map[string]any `json:"context"`
	ActiveFiles      []string       `json:"activeFiles"`
	WorkingDirectory string         `json:"workingDirectory"`
	Dependencies     []string       `json:"dependencies,omitempty"`
	Blockers         []string       `json:"blockers,omitempty"`
}

func (TaskStateContent) EntryType() EntryType { return TypeTaskState }
func (TaskStateContent) sealed()              {}

func (c TaskStateContent) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%.0f%%)\n", c.Description, c.Progress)
	writeList(&b, "goals", c.Goals)
	writeList(&b, "files", c.ActiveFiles)
	writeList(&b, "blockers", c.Blockers)
	return strings.TrimSpace(b.String())
}

// FileAction is what a commit did to a file.
type FileAction string

const (
	FileAdded    FileAction = "added"
	FileModified FileAction = "modified"
	FileDeleted  FileAction = "deleted"
	FileRenamed  FileAction = "renamed"
)

// FileActions returns the allowed file actions.
func FileActions() []FileAction {
	return []FileAction{FileAdded, FileModified, FileDeleted, FileRenamed}
}

// Author identifies a commit author.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileChange is one file touched by a commit.
type FileChange struct {
	Path         string     `json:"path"`
	Action       FileAction `json:"action"`
	LinesAdded   *int       `json:"linesAdded,omitempty"`
	LinesDeleted *int       `json:"linesDeleted,omitempty"`
}

// SemanticChanges lists code symbols affected by a commit.
type SemanticChanges struct {
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
	Imports   []string `json:"imports"`
	Configs   []string `json:"configs"`
}

// CommitDeltaContent records a single commit.
type CommitDeltaContent struct {
	CommitHash string           `json:"commitHash"`
	Message    string           `json:"message"`
	Author     Author           `json:"author"`
	Files      []FileChange     `json:"files"`
	Semantic   *SemanticChanges `json:"semantic,omitempty"`
}

func (CommitDeltaContent) EntryType() EntryType { return TypeCommitDelta }
func (CommitDeltaContent) sealed()              {}

func (c CommitDeltaContent) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", c.CommitHash, c.Message)
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, string(f.Action)+" "+f.Path)
	}
	writeList(&b, "files", paths)
	if c.Semantic != nil {
		writeList(&b, "functions", c.Semantic.Functions)
		writeList(&b, "classes", c.Semantic.Classes)
	}
	return strings.TrimSpace(b.String())
}

// CodeRef points at a piece of code used during reasoning.
type CodeRef struct {
	File    string  `json:"file"`
	Lines   *[2]int `json:"lines,omitempty"`
	Content string  `json:"content,omitempty"`
}

// ReasoningEntryContent records one model exchange.
type ReasoningEntryContent struct {
	ThreadID  string    `json:"threadId"`
	Model     string    `json:"model"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Reasoning string    `json:"reasoning,omitempty"`
	CodeRefs  []CodeRef `json:"codeRefs,omitempty"`
	Actions   []string  `json:"actions,omitempty"`
}

func (ReasoningEntryContent) EntryType() EntryType { return TypeReasoningEntry }
func (ReasoningEntryContent) sealed()              {}

func (c ReasoningEntryContent) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Q: %s\nA: %s\n", c.Query, c.Response)
	if c.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n", c.Reasoning)
	}
	writeList(&b, "actions", c.Actions)
	return strings.TrimSpace(b.String())
}

// Period is a closed time interval.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SummaryCheckpointContent condenses a period of work.
type SummaryCheckpointContent struct {
	Period            Period             `json:"period"`
	Summary           string             `json:"summary"`
	Achievements      []string           `json:"achievements"`
	Decisions         []string           `json:"decisions"`
	TechnicalDebt     []string           `json:"technicalDebt,omitempty"`
	Metrics           map[string]float64 `json:"metrics"`
	CompressedEntries []string           `json:"compressedEntries,omitempty"`
}

func (SummaryCheckpointContent) EntryType() EntryType { return TypeSummaryCheckpoint }
func (SummaryCheckpointContent) sealed()              {}

func (c SummaryCheckpointContent) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", c.Summary)
	writeList(&b, "achievements", c.Achievements)
	writeList(&b, "decisions", c.Decisions)
	writeList(&b, "debt", c.TechnicalDebt)
	if len(c.Metrics) > 0 {
		keys := make([]string, 0, len(c.Metrics))
		for k := range c.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		metrics := make([]string, 0, len(keys))
		for _, k := range keys {
			metrics = append(metrics, fmt.Sprintf("%s=%g", k, c.Metrics[k]))
		}
		writeList(&b, "metrics", metrics)
	}
	return strings.TrimSpace(b.String())
}

// Environment is the deployment target a branch maps to.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Environments returns the allowed environments.
func Environments() []Environment {
	return []Environment{EnvDevelopment, EnvStaging, EnvProduction}
}

// BranchMetaContent describes a branch.
type BranchMetaContent struct {
	Purpose         string      `json:"purpose"`
	ParentBranch    string      `json:"parentBranch"`
	ChildBranches   []string    `json:"childBranches,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	MergeTarget     string      `json:"mergeTarget,omitempty"`
	FeatureFlags    []string    `json:"featureFlags,omitempty"`
	Environment     Environment `json:"environment,omitempty"`
	RelatedBranches []string    `json:"relatedBranches,omitempty"`
}

func (BranchMetaContent) EntryType() EntryType { return TypeBranchMeta }
func (BranchMetaContent) sealed()              {}

func (c BranchMetaContent) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (from %s)\n", c.Purpose, c.ParentBranch)
	if c.MergeTarget != "" {
		fmt.Fprintf(&b, "merges into %s\n", c.MergeTarget)
	}
	writeList(&b, "flags", c.FeatureFlags)
	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}
