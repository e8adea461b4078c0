package repository

import (
	"github.com/google/uuid"

	"github.com/duynhne/poker-service/internal/core/domain"
)

// gameTypeFromColumn restores a stored game type. Stored values were
// validated on write, so anything that no longer parses is kept as custom text.
func gameTypeFromColumn(s string) domain.GameType {
	g, err := domain.ParseGameType(s)
	if err != nil {
		g, _ = domain.CustomGameType(s)
	}
	return g
}

func stakesFromColumn(s string) domain.Stakes {
	st, err := domain.ParseStakes(s)
	if err != nil {
		st, _ = domain.CustomStakes(s)
	}
	return st
}

// isUUID reports whether id can address a row; anything else cannot exist.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nonNilBuyIns(b []domain.BuyIn) []domain.BuyIn {
	if b == nil {
		return []domain.BuyIn{}
	}
	return b
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
