package database

import (
	"testing"

	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/apperr"
	"github.com/agapovm/rodnya/internal/models"
)

func TestCreateGroupValidation(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")
	carol := newTestUser(t, d, "carol")

	tests := []struct {
		name      string
		groupName string
		groupType string
		members   []uuid.UUID
	}{
		{"empty name", "", models.GroupTypeFamily, nil},
		{"unknown type", "Чат", "secret", nil},
		{"direct with too many members", "ЛС", models.GroupTypeDirect, []uuid.UUID{bob.ID, carol.ID}},
		{"direct with no members", "ЛС", models.GroupTypeDirect, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CreateGroup(alice.ID, tt.groupName, tt.groupType, tt.members)
			if !apperr.IsKind(err, apperr.Validation) {
				t.Errorf("expected Validation, got %v", err)
			}
		})
	}
}

func TestCreateGroupRoles(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	group, err := d.CreateGroup(alice.ID, "Работа", models.GroupTypeWork, []uuid.UUID{bob.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	creator := group.MemberOf(alice.ID)
	if creator == nil || creator.Role != models.RoleOwner {
		t.Error("creator is not owner")
	}

	member := group.MemberOf(bob.ID)
	if member == nil || member.Role != models.RoleMember {
		t.Error("invited user is not a plain member")
	}
}

func TestResolveDirectChatIdempotent(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	first, err := d.ResolveDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Повторно и в обратном порядке аргументов — тот же канал
	second, err := d.ResolveDirectChat(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resolve created a duplicate: %s vs %s", first.ID, second.ID)
	}

	var count int64
	d.db.Model(&models.ChatGroup{}).Where("type = ?", models.GroupTypeDirect).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 direct channel, got %d", count)
	}

	if _, err := d.ResolveDirectChat(alice.ID, alice.ID); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected Validation for self chat, got %v", err)
	}
}

func TestCreateGroupDirectDelegates(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	viaCreate, err := d.CreateGroup(alice.ID, "ЛС", models.GroupTypeDirect, []uuid.UUID{bob.ID})
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}

	viaResolve, err := d.ResolveDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if viaCreate.ID != viaResolve.ID {
		t.Error("createGroup(direct) and resolveDirectChat produced different channels")
	}
}

func TestListGroupsOrderedByActivity(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")

	older, err := d.CreateGroup(alice.ID, "Старый", models.GroupTypeCustom, nil)
	if err != nil {
		t.Fatalf("create older: %v", err)
	}
	newer, err := d.CreateGroup(alice.ID, "Новый", models.GroupTypeCustom, nil)
	if err != nil {
		t.Fatalf("create newer: %v", err)
	}

	// Сообщение в старом канале поднимает его наверх
	if _, err := d.SendMessage(SendInput{
		GroupID: older.ID, AuthorID: alice.ID, Content: "подъем", ClientKey: "k1",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	groups, err := d.ListGroups(alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != older.ID {
		t.Error("channel with latest message is not first")
	}
	if groups[1].ID != newer.ID {
		t.Error("idle channel is not last")
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")
	group := newTestGroup(t, d, alice.ID, bob.ID)

	msg, err := d.SendMessage(SendInput{
		GroupID: group.ID, AuthorID: alice.ID, Content: "bye", ClientKey: "k1",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.SetReaction(msg.ID, bob.ID, "👍"); err != nil {
		t.Fatalf("react: %v", err)
	}
	if _, err := d.ScheduleAction(ScheduleInput{
		GroupID: group.ID, Actor: alice.ID, Title: "Ужин",
		Type: models.ActionTypeEvent, ScheduledDate: "2030-01-01",
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := d.DeleteGroup(group.ID.String()); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	for name, model := range map[string]interface{}{
		"messages":  &models.Message{},
		"reactions": &models.Reaction{},
		"actions":   &models.ScheduledAction{},
		"members":   &models.GroupMember{},
	} {
		var count int64
		d.db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("%s not cascaded: %d rows left", name, count)
		}
	}
}

func TestRemoveMemberDropsReactions(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")
	group := newTestGroup(t, d, alice.ID, bob.ID)

	msg, err := d.SendMessage(SendInput{
		GroupID: group.ID, AuthorID: alice.ID, Content: "hi", ClientKey: "k1",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := d.SetReaction(msg.ID, bob.ID, "❤️"); err != nil {
		t.Fatalf("react: %v", err)
	}

	if err := d.RemoveMember(group.ID, bob.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	counts, err := d.ReactionCounts(msg.ID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("reactions survived membership removal: %v", counts)
	}
}
