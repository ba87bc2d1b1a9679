package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

func TestUserStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(domain.User{ID: "1", Username: "alice", Permissions: []domain.Permission{domain.PermViewOwnTickets}})

	users, _ := store.LoadAll(ctx)
	users[0].Username = "mallory"
	users[0].Permissions[0] = domain.PermSystemSettings

	again, _ := store.LoadAll(ctx)
	if again[0].Username != "alice" {
		t.Errorf("store mutated through loaded copy: %s", again[0].Username)
	}
	if again[0].Permissions[0] != domain.PermViewOwnTickets {
		t.Errorf("permissions mutated through loaded copy: %v", again[0].Permissions)
	}
}

func TestUserStore_SaveAllHonoursCancelledContext(t *testing.T) {
	store := NewUserStore(domain.User{ID: "1", Username: "alice"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.SaveAll(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	users, _ := store.LoadAll(context.Background())
	if len(users) != 1 {
		t.Errorf("set changed after failed save: %+v", users)
	}
}

func TestTicketRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	now := time.Now()

	_ = repo.Create(ctx, &domain.Ticket{ID: "a", CreatedBy: "u1", Status: domain.TicketOpen, CreatedAt: now.Add(-time.Hour)})
	_ = repo.Create(ctx, &domain.Ticket{ID: "b", CreatedBy: "u2", Status: domain.TicketClosed, CreatedAt: now})
	_ = repo.Create(ctx, &domain.Ticket{ID: "c", CreatedBy: "u1", Status: domain.TicketClosed, CreatedAt: now.Add(time.Hour)})

	all, _ := repo.List(ctx, ports.ListTicketsFilter{})
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("unexpected order: %v %v %v", all[0].ID, all[1].ID, all[2].ID)
	}
	closedByU1, _ := repo.List(ctx, ports.ListTicketsFilter{CreatedBy: "u1", Status: string(domain.TicketClosed)})
	if len(closedByU1) != 1 || closedByU1[0].ID != "c" {
		t.Errorf("combined filter failed: %+v", closedByU1)
	}
	if err := repo.Update(ctx, &domain.Ticket{ID: "zzz"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogRepository_DeleteMissing(t *testing.T) {
	repo := NewCatalogRepository()
	if err := repo.DeleteDepartment(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteCategory(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRevocationList_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	list := NewRevocationList()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list.now = func() time.Time { return now }

	_ = list.Revoke(ctx, "jti-1", time.Minute)
	if revoked, _ := list.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("expected token to be revoked")
	}
	if revoked, _ := list.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("unrelated token reported revoked")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := list.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("expected revocation to lapse after ttl")
	}
}
