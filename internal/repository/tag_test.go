package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
)

func TestTagGetByNameCaseInsensitive(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.tags.RecordUsage(ctx, []string{"Half Guard"}, nil); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	got, err := repos.tags.GetByName(ctx, "half guard")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.Name != "Half Guard" {
		t.Errorf("Name = %q, want original casing preserved", got.Name)
	}
}

func TestTagGetByNameMissingReturnsNotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.tags.GetByName(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTagUsageNeverDeletesRows(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.tags.RecordUsage(ctx, []string{"Spider Guard"}, nil); err != nil {
		t.Fatalf("adopt failed: %v", err)
	}
	if err := repos.tags.RecordUsage(ctx, nil, []string{"Spider Guard"}); err != nil {
		t.Fatalf("drop failed: %v", err)
	}

	got, err := repos.tags.GetByName(ctx, "Spider Guard")
	if err != nil {
		t.Fatalf("GetByName after drop failed: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", got.UsageCount)
	}

	// Dropping below zero clamps rather than going negative.
	if err := repos.tags.RecordUsage(ctx, nil, []string{"Spider Guard"}); err != nil {
		t.Fatalf("second drop failed: %v", err)
	}
	got, err = repos.tags.GetByName(ctx, "Spider Guard")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want clamped at 0", got.UsageCount)
	}
}

func TestTagUsageAdoptionResolvesCaseInsensitively(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.tags.RecordUsage(ctx, []string{"Mount"}, nil); err != nil {
		t.Fatalf("first adopt failed: %v", err)
	}
	if err := repos.tags.RecordUsage(ctx, []string{"MOUNT"}, nil); err != nil {
		t.Fatalf("second adopt failed: %v", err)
	}

	all, err := repos.tags.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want a single row per distinct name", len(all))
	}
	if all[0].UsageCount != 2 {
		t.Errorf("UsageCount = %d, want 2", all[0].UsageCount)
	}
}

func TestTagDroppingUnknownNameIsIgnored(t *testing.T) {
	repos := newTestRepos(t)

	if err := repos.tags.RecordUsage(context.Background(), nil, []string{"never-adopted"}); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
}

func TestTagGetAllSortedByName(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.tags.RecordUsage(ctx, []string{"Turtle", "armdrag", "Mount"}, nil); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	all, err := repos.tags.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].Name != "armdrag" || all[1].Name != "Mount" || all[2].Name != "Turtle" {
		t.Errorf("order = [%s %s %s], want case-insensitive name order", all[0].Name, all[1].Name, all[2].Name)
	}
}
