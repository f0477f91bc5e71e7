package types

import (
	"strings"
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid admin", User{Email: "a@x.test", Role: RoleAdmin}, false},
		{"valid member with manager", User{Email: "m@x.test", Role: RoleMember, ManagerID: "mgr-1"}, false},
		{"member without manager", User{Email: "m@x.test", Role: RoleMember}, true},
		{"qa without manager", User{Email: "q@x.test", Role: RoleQA}, true},
		{"missing email", User{Role: RoleAdmin}, true},
		{"invalid role", User{Email: "a@x.test", Role: "root"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProjectValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"two letters", "AB", false},
		{"with digits", "ACM2", false},
		{"ten chars", "ABCDEFGHIJ", false},
		{"single char", "A", true},
		{"eleven chars", "ABCDEFGHIJK", true},
		{"lowercase", "acm", true},
		{"starts with digit", "1AB", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project{Name: "p", Key: tt.key}
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("key %q: error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}

	p := Project{Key: "AB"}
	if err := p.Validate(); err == nil {
		t.Error("project without a name should not validate")
	}
}

func TestWorkItemValidate(t *testing.T) {
	valid := WorkItem{Title: "fix it", Type: TypeTask, Priority: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(*WorkItem)
	}{
		{"empty title", func(w *WorkItem) { w.Title = "  " }},
		{"title over 500", func(w *WorkItem) { w.Title = strings.Repeat("x", 501) }},
		{"negative priority", func(w *WorkItem) { w.Priority = -1 }},
		{"priority over 4", func(w *WorkItem) { w.Priority = 5 }},
		{"bad type", func(w *WorkItem) { w.Type = "saga" }},
		{"sprint and backlog", func(w *WorkItem) { w.SprintID = "s1"; w.IsInBacklog = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			tt.mut(&w)
			if err := w.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Priority 0 is critical, not unset.
	w := valid
	w.Priority = 0
	if err := w.Validate(); err != nil {
		t.Errorf("priority 0 should be valid: %v", err)
	}

	// Exactly 500 characters is the boundary.
	w = valid
	w.Title = strings.Repeat("x", 500)
	if err := w.Validate(); err != nil {
		t.Errorf("500-char title should be valid: %v", err)
	}
}

func TestTombstoneDelete(t *testing.T) {
	var ts Tombstone
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ts.Delete("user-1", at)
	if !ts.IsDeleted || ts.DeletedBy != "user-1" || ts.DeletedAt == nil || !ts.DeletedAt.Equal(at) {
		t.Errorf("unexpected tombstone state: %+v", ts)
	}
}

func TestDisplayKey(t *testing.T) {
	w := WorkItem{ItemNumber: 42}
	if got := w.DisplayKey("ACM"); got != "ACM-42" {
		t.Errorf("DisplayKey = %q, want ACM-42", got)
	}
}

func TestSprintStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to SprintStatus
		want     bool
	}{
		{SprintPlanning, SprintActive, true},
		{SprintActive, SprintCompleted, true},
		{SprintPlanning, SprintCompleted, false},
		{SprintActive, SprintPlanning, false},
		{SprintCompleted, SprintActive, false},
		{SprintCompleted, SprintPlanning, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTicketStatusIsTerminal(t *testing.T) {
	for _, s := range []TicketStatus{TicketCompleted, TicketLost} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TicketStatus{TicketCreated, TicketInTransit, TicketReceived, TicketProcessing, TicketApproved, TicketRejected} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCoreStatusSeeds(t *testing.T) {
	seeds := CoreStatusSeeds()
	if len(seeds) != 4 {
		t.Fatalf("expected 4 core seeds, got %d", len(seeds))
	}
	wantOrder := []CoreStatusType{CoreNew, CoreInProgress, CoreReview, CoreDone}
	for i, seed := range seeds {
		if seed.Type != wantOrder[i] {
			t.Errorf("seed %d = %s, want %s", i, seed.Type, wantOrder[i])
		}
		if seed.Order != i+1 {
			t.Errorf("seed %s order = %d, want %d", seed.Type, seed.Order, i+1)
		}
		if seed.Name == "" || seed.Color == "" {
			t.Errorf("seed %s missing name or color", seed.Type)
		}
	}
}
