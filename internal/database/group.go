package database

import (
	"errors"
	"time"

	"github.com/agapovm/rodnya/internal/apperr"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateGroup создает групповой канал, создатель получает роль owner.
// Direct-каналы с ровно двумя участниками уходят в ResolveDirectChat,
// чтобы сработал инвариант уникальности пары.
func (d *Database) CreateGroup(creator uuid.UUID, name, groupType string, memberIDs []uuid.UUID) (*models.ChatGroup, error) {
	if name == "" {
		return nil, apperr.Validationf("group name is required")
	}

	switch groupType {
	case models.GroupTypeFamily, models.GroupTypeWork, models.GroupTypeCustom:
	case models.GroupTypeDirect:
		others := dedupMembers(creator, memberIDs)
		if len(others) != 1 {
			return nil, apperr.Validationf("direct channel requires exactly 2 members")
		}
		return d.ResolveDirectChat(creator, others[0])
	default:
		return nil, apperr.Validationf("unknown group type %q", groupType)
	}

	now := time.Now()
	group := &models.ChatGroup{
		Name:           name,
		Type:           groupType,
		CreatedBy:      creator,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.GroupMember{
			GroupID:  group.ID,
			UserID:   creator,
			Role:     models.RoleOwner,
			JoinedAt: now,
		}).Error; err != nil {
			return err
		}

		for _, id := range dedupMembers(creator, memberIDs) {
			if err := tx.Create(&models.GroupMember{
				GroupID:  group.ID,
				UserID:   id,
				Role:     models.RoleMember,
				JoinedAt: now,
			}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return d.GetGroup(group.ID.String())
}

// GetGroup получает канал с участниками
func (d *Database) GetGroup(id string) (*models.ChatGroup, error) {
	var group models.ChatGroup
	err := d.db.Preload("Members").Preload("Members.User").First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("group %s not found", id)
		}
		return nil, err
	}
	return &group, nil
}

// ListGroups возвращает каналы пользователя, упорядоченные по последней
// активности. Порядок стабилен на сервере, клиент не пересортировывает.
func (d *Database) ListGroups(userID uuid.UUID) ([]models.ChatGroup, error) {
	var groups []models.ChatGroup
	err := d.db.
		Joins("JOIN group_members gm ON gm.group_id = chat_groups.id").
		Where("gm.user_id = ?", userID).
		Order("chat_groups.last_activity_at DESC").
		Preload("Members").
		Preload("Members.User").
		Find(&groups).Error
	return groups, err
}

// ListDirectChats возвращает только direct-каналы пользователя
func (d *Database) ListDirectChats(userID uuid.UUID) ([]models.ChatGroup, error) {
	var groups []models.ChatGroup
	err := d.db.
		Joins("JOIN group_members gm ON gm.group_id = chat_groups.id").
		Where("gm.user_id = ? AND chat_groups.type = ?", userID, models.GroupTypeDirect).
		Order("chat_groups.last_activity_at DESC").
		Preload("Members").
		Preload("Members.User").
		Find(&groups).Error
	return groups, err
}

// ResolveDirectChat находит или создает direct-канал пары пользователей.
// Идемпотентна: любой порядок аргументов и любое число вызовов дают один
// и тот же канал. Гонка двух одновременных вызовов схлопывается на
// уникальном индексе pair_key: проигравший перечитывает существующую запись.
func (d *Database) ResolveDirectChat(userA, userB uuid.UUID) (*models.ChatGroup, error) {
	if userA == userB {
		return nil, apperr.Validationf("direct channel with yourself is not allowed")
	}

	pairKey := models.DirectPairKey(userA, userB)

	var existing models.ChatGroup
	err := d.db.Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		return d.GetGroup(existing.ID.String())
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	group := &models.ChatGroup{
		Name:           "Direct",
		Type:           models.GroupTypeDirect,
		PairKey:        &pairKey,
		CreatedBy:      userA,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for _, id := range []uuid.UUID{userA, userB} {
			if err := tx.Create(&models.GroupMember{
				GroupID:  group.ID,
				UserID:   id,
				Role:     models.RoleMember,
				JoinedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Пара уже создана конкурентным вызовом, используем ее
			if qerr := d.db.Where("pair_key = ?", pairKey).First(&existing).Error; qerr == nil {
				return d.GetGroup(existing.ID.String())
			}
			return nil, apperr.Wrap(apperr.Conflict, err, "direct channel already exists")
		}
		return nil, err
	}

	return d.GetGroup(group.ID.String())
}

// AddMember добавляет пользователя в групповой канал
func (d *Database) AddMember(groupID, userID uuid.UUID, role string) error {
	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := d.db.Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("user is already a member")
		}
		return err
	}
	return nil
}

// RemoveMember удаляет участие вместе с реакциями пользователя
// на сообщения канала (реакции живут не дольше членства)
func (d *Database) RemoveMember(groupID, userID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND message_id IN (?)",
				userID,
				tx.Model(&models.Message{}).Select("id").Where("group_id = ?", groupID),
			).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		return tx.
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMember{}).Error
	})
}

// DeleteGroup удаляет канал каскадно: сообщения, реакции,
// запланированные действия, участия
func (d *Database) DeleteGroup(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("message_id IN (?)",
				tx.Model(&models.Message{}).Select("id").Where("group_id = ?", id),
			).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Message{}, "group_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.ScheduledAction{}, "group_id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.GroupMember{}, "group_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.ChatGroup{}, "id = ?", id).Error
	})
}

// IsMember сообщает, состоит ли пользователь в канале
func (d *Database) IsMember(groupID, userID uuid.UUID) bool {
	_, err := d.membership(d.db, groupID, userID)
	return err == nil
}

// membership возвращает запись участия или Permission-ошибку
func (d *Database) membership(tx *gorm.DB, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Permissionf("not a member of this channel")
		}
		return nil, err
	}
	return &member, nil
}

func dedupMembers(creator uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{creator: true}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
