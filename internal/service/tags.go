package service

import (
	"context"
	"slices"

	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/tags"
)

// AddTag добавляет тег text (после TrimSpace) в конец списка тегов.
// Пустой text — no-op. Возвращает итоговые теги.
func (s *Service) AddTag(ctx context.Context, sid, id, text string) ([]string, error) {
	const op = "service.tags.AddTag"

	return s.editTags(ctx, op, sid, id, func(in []string) []string {
		return tags.Add(in, text)
	})
}

// RemoveTag удаляет первое точное совпадение text.
func (s *Service) RemoveTag(ctx context.Context, sid, id, text string) ([]string, error) {
	const op = "service.tags.RemoveTag"

	return s.editTags(ctx, op, sid, id, func(in []string) []string {
		return tags.Remove(in, text)
	})
}

// RenameTag заменяет первое совпадение oldText на newText с сохранением позиции.
// Пустой newText или отсутствие oldText — no-op.
func (s *Service) RenameTag(ctx context.Context, sid, id, oldText, newText string) ([]string, error) {
	const op = "service.tags.RenameTag"

	return s.editTags(ctx, op, sid, id, func(in []string) []string {
		return tags.Rename(in, oldText, newText)
	})
}

func (s *Service) editTags(ctx context.Context, op, sid, id string, edit func([]string) []string) ([]string, error) {
	u, err := s.mutateUser(ctx, op, sid, id, func(u *models.User) bool {
		next := edit(u.Tags)
		if slices.Equal(next, u.Tags) {
			return false
		}

		u.Tags = next
		return true
	})
	if err != nil {
		return nil, err
	}

	return u.Tags, nil
}
