package validate

import (
	"fmt"
	"regexp"

	"github.com/rcliao/memory-fabric/internal/model"
)

var commitHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)

func taskStateSchema() Rule[model.TaskStateContent] {
	return Object(func(f *Fields) model.TaskStateContent {
		return model.TaskStateContent{
			Description:      Required(f, "description", NonEmpty(String())),
			Goals:            Required(f, "goals", ArrayOf(String())),
			Progress:         Required(f, "progress", Range(Number(), 0, 100)),
			Context:          Required(f, "context", OpenObject()),
			ActiveFiles:      Required(f, "activeFiles", ArrayOf(String())),
			WorkingDirectory: Required(f, "workingDirectory", NonEmpty(String())),
			Dependencies:     OptionalList(f, "dependencies", String()),
			Blockers:         OptionalList(f, "blockers", String()),
		}
	})
}

func commitDeltaSchema() Rule[model.CommitDeltaContent] {
	author := Object(func(f *Fields) model.Author {
		return model.Author{
			Name:  Required(f, "name", NonEmpty(String())),
			Email: Required(f, "email", Email()),
		}
	})
	file := Object(func(f *Fields) model.FileChange {
		return model.FileChange{
			Path:         Required(f, "path", NonEmpty(String())),
			Action:       Required(f, "action", Enum(model.FileActions()...)),
			LinesAdded:   OptionalPtr(f, "linesAdded", NonNegative(Integer())),
			LinesDeleted: OptionalPtr(f, "linesDeleted", NonNegative(Integer())),
		}
	})
	semantic := Object(func(f *Fields) model.SemanticChanges {
		return model.SemanticChanges{
			Functions: Required(f, "functions", ArrayOf(String())),
			Classes:   Required(f, "classes", ArrayOf(String())),
			Imports:   Required(f, "imports", ArrayOf(String())),
			Configs:   Required(f, "configs", ArrayOf(String())),
		}
	})
	return Object(func(f *Fields) model.CommitDeltaContent {
		return model.CommitDeltaContent{
			CommitHash: Required(f, "commitHash", Pattern(String(), commitHashPattern)),
			Message:    Required(f, "message", NonEmpty(String())),
			Author:     Required(f, "author", author),
			Files:      Required(f, "files", ArrayOf(file)),
			Semantic:   OptionalPtr(f, "semantic", semantic),
		}
	})
}

// lineRange accepts a [start, end] pair of 1-based line numbers.
func lineRange() Rule[[2]int] {
	return func(c cursor, v any) ([2]int, bool) {
		var out [2]int
		items, ok := asSlice(v)
		if !ok {
			c.fail(CodeInvalidType, "expected [start, end], received "+typeName(v), nil)
			return out, false
		}
		if len(items) != 2 {
			code := CodeTooSmall
			if len(items) > 2 {
				code = CodeTooBig
			}
			c.fail(code, fmt.Sprintf("expected 2 elements, received %d", len(items)), map[string]any{"received": len(items)})
			return out, false
		}
		before := c.count()
		for i := range out {
			out[i], _ = Integer()(c.at(fmt.Sprint(i)), items[i])
		}
		if c.count() != before {
			return out, false
		}
		if out[0] < 1 || out[1] < out[0] {
			c.fail(CodeInvalidRange, fmt.Sprintf("invalid line range [%d, %d]", out[0], out[1]), nil)
			return out, false
		}
		return out, true
	}
}

func reasoningEntrySchema() Rule[model.ReasoningEntryContent] {
	codeRef := Object(func(f *Fields) model.CodeRef {
		return model.CodeRef{
			File:    Required(f, "file", NonEmpty(String())),
			Lines:   OptionalPtr(f, "lines", lineRange()),
			Content: Optional(f, "content", String()),
		}
	})
	return Object(func(f *Fields) model.ReasoningEntryContent {
		return model.ReasoningEntryContent{
			ThreadID:  Required(f, "threadId", NonEmpty(String())),
			Model:     Required(f, "model", NonEmpty(String())),
			Query:     Required(f, "query", NonEmpty(String())),
			Response:  Required(f, "response", String()),
			Reasoning: Optional(f, "reasoning", String()),
			CodeRefs:  OptionalList(f, "codeRefs", codeRef),
			Actions:   OptionalList(f, "actions", String()),
		}
	})
}

func summaryCheckpointSchema() Rule[model.SummaryCheckpointContent] {
	period := Object(func(f *Fields) model.Period {
		p := model.Period{
			Start: Required(f, "start", Timestamp()),
			End:   Required(f, "end", Timestamp()),
		}
		if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
			f.c.at("end").fail(CodeInvalidRange, "period ends before it starts", nil)
		}
		return p
	})
	return Object(func(f *Fields) model.SummaryCheckpointContent {
		return model.SummaryCheckpointContent{
			Period:            Required(f, "period", period),
			Summary:           Required(f, "summary", NonEmpty(String())),
			Achievements:      Required(f, "achievements", ArrayOf(String())),
			Decisions:         Required(f, "decisions", ArrayOf(String())),
			TechnicalDebt:     OptionalList(f, "technicalDebt", String()),
			Metrics:           Required(f, "metrics", MapOf(Number())),
			CompressedEntries: OptionalList(f, "compressedEntries", String()),
		}
	})
}

func branchMetaSchema() Rule[model.BranchMetaContent] {
	return Object(func(f *Fields) model.BranchMetaContent {
		return model.BranchMetaContent{
			Purpose:         Required(f, "purpose", NonEmpty(String())),
			ParentBranch:    Required(f, "parentBranch", NonEmpty(String())),
			ChildBranches:   OptionalList(f, "childBranches", String()),
			CreatedAt:       Required(f, "createdAt", Timestamp()),
			MergeTarget:     Optional(f, "mergeTarget", String()),
			FeatureFlags:    OptionalList(f, "featureFlags", String()),
			Environment:     Optional(f, "environment", Enum(model.Environments()...)),
			RelatedBranches: OptionalList(f, "relatedBranches", String()),
		}
	})
}
