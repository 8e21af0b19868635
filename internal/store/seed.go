package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/tableside/tableside/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Seeder is the part of Store needed to seed an empty database.
type Seeder interface {
	ListMenu(ctx context.Context) ([]domain.MenuItem, error)
	AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (domain.User, error)
}

// DefaultMenu is the menu written by a fresh seed.
func DefaultMenu() []domain.MenuItem {
	item := func(name, price, desc string) domain.MenuItem {
		return domain.MenuItem{Name: name, UnitPrice: decimal.RequireFromString(price), Description: desc}
	}
	return []domain.MenuItem{
		item("İskender", "320", "Tereyağlı, yoğurtlu döner"),
		item("Adana Kebap", "280", "Acılı zırh kıyma"),
		item("Lahmacun", "90", ""),
		item("Künefe", "150", "Antep fıstıklı"),
		item("Ayran", "35", ""),
		item("Çay", "20", ""),
	}
}

// SeedAdmin creates the admin user unless it already exists. It reports
// whether a user was created.
func SeedAdmin(ctx context.Context, s Seeder, username, password string) (bool, error) {
	_, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		log.Info().Str("username", username).Msg("admin user already exists, skipping")
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.CreateUser(ctx, username, string(hashed))
	if err != nil {
		return false, err
	}
	log.Info().Str("username", username).Int64("user_id", u.ID).Msg("created admin user")
	return true, nil
}

// SeedMenu writes items when the menu is empty and returns how many rows were
// added.
func SeedMenu(ctx context.Context, s Seeder, items []domain.MenuItem) (int, error) {
	existing, err := s.ListMenu(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Info().Int("items", len(existing)).Msg("menu already present, skipping")
		return 0, nil
	}
	for _, it := range items {
		if _, err := s.AddMenuItem(ctx, it); err != nil {
			return 0, fmt.Errorf("add %q: %w", it.Name, err)
		}
	}
	log.Info().Int("items", len(items)).Msg("seeded menu")
	return len(items), nil
}
