package tracker

import (
	"strings"
	"testing"
)

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusTodo, true},
		{StatusInProgress, true},
		{StatusDone, true},
		{"", false},
		{"TODO", false},
		{"archived", false},
		{"in-progress", false},
	}

	for _, tt := range tests {
		if got := validStatus(tt.status); got != tt.want {
			t.Errorf("validStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 20},
		{0, 20},
		{1, 1},
		{20, 20},
		{100, 100},
		{101, 100},
		{99999, 100},
	}

	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTaskOrderClause(t *testing.T) {
	if got := taskOrderClause("created_asc"); got != "created_at ASC" {
		t.Errorf("created_asc clause = %q", got)
	}
	if got := taskOrderClause("created_desc"); got != "created_at DESC" {
		t.Errorf("created_desc clause = %q", got)
	}

	// default and status_asc both produce board ordering
	for _, order := range []string{"", "status_asc", "garbage"} {
		clause := taskOrderClause(order)
		if !strings.Contains(clause, "CASE status") {
			t.Errorf("taskOrderClause(%q) = %q, want board ordering", order, clause)
		}
		todo := strings.Index(clause, "'todo'")
		inProgress := strings.Index(clause, "'in_progress'")
		if todo < 0 || inProgress < 0 || todo > inProgress {
			t.Errorf("taskOrderClause(%q) must rank todo before in_progress: %q", order, clause)
		}
	}
}

func TestCommentOrderClause(t *testing.T) {
	if got := commentOrderClause("created_asc"); got != "created_at ASC" {
		t.Errorf("created_asc clause = %q", got)
	}
	// newest first is the default, anything unrecognized included
	for _, order := range []string{"", "created_desc", "garbage"} {
		if got := commentOrderClause(order); got != "created_at DESC" {
			t.Errorf("commentOrderClause(%q) = %q, want created_at DESC", order, got)
		}
	}
}
