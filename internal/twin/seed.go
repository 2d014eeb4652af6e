package twin

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"ownerportal/internal/domain/reward"
	"ownerportal/internal/domain/viewing"
)

// Seed is the twin's initial dataset, loaded from YAML.
type Seed struct {
	Catalog []SeedCatalogItem `yaml:"catalog"`
	Owners  []SeedOwner       `yaml:"owners"`
}

// SeedCatalogItem mirrors reward.CatalogItem with YAML keys.
type SeedCatalogItem struct {
	SKU             string  `yaml:"sku"`
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	Points          float64 `yaml:"points"`
	MaxPerOrder     int     `yaml:"maxPerOrder"`
	RequiresFitting bool    `yaml:"requiresFitting"`
	ImageURL        string  `yaml:"imageUrl"`
}

// CatalogItems converts the seeded catalog into domain items, preserving
// seed order.
func (s Seed) CatalogItems() []reward.CatalogItem {
	items := make([]reward.CatalogItem, 0, len(s.Catalog))
	for _, c := range s.Catalog {
		items = append(items, reward.CatalogItem{
			SKU:             c.SKU,
			Name:            c.Name,
			Description:     c.Description,
			Points:          c.Points,
			MaxPerOrder:     c.MaxPerOrder,
			RequiresFitting: c.RequiresFitting,
			ImageURL:        c.ImageURL,
		})
	}
	return items
}

// SeedOwner is one seeded owner. Password is optional: when empty the
// starter convention applies, owner number plus "-START".
type SeedOwner struct {
	OwnerNumber  string        `yaml:"ownerNumber"`
	Name         string        `yaml:"name"`
	JoinedYear   int           `yaml:"joinedYear"`
	IsActive     bool          `yaml:"isActive"`
	RewardPoints float64       `yaml:"rewardPoints"`
	Password     string        `yaml:"password"`
	Viewings     []SeedViewing `yaml:"viewings"`
}

// SeedViewing is one seeded viewing row.
type SeedViewing struct {
	ViewingID       string   `yaml:"viewingId"`
	Date            string   `yaml:"date"`
	ViewerName      string   `yaml:"viewerName"`
	Status          string   `yaml:"status"`
	PointsAllocated *float64 `yaml:"pointsAllocated"`
}

// DefaultSeed is the dataset used when no seed file is configured: a small
// catalog and two demo owners.
const DefaultSeed = `
catalog:
  - sku: mug-enamel
    name: Enamel Mug Set
    description: A pair of **Go-Pods** enamel mugs.
    points: 10
    maxPerOrder: 3
  - sku: awning-light
    name: Awning Light Strip
    description: Warm-white LED strip for the awning rail.
    points: 25
    maxPerOrder: 2
  - sku: solar-kit
    name: Solar Panel Kit
    description: 120W panel with controller, *fitted at our workshop*.
    points: 80
    requiresFitting: true
owners:
  - ownerNumber: GP-1001
    name: Alex Harper
    joinedYear: 2021
    isActive: true
    rewardPoints: 52.5
    viewings:
      - viewingId: V-9001
        date: "2026-07-12"
        viewerName: Pat Moss
        status: ARRANGED
      - viewingId: V-9002
        date: "2026-05-30"
        viewerName: Sam Reed
        status: VIEWED
        pointsAllocated: 0.25
  - ownerNumber: GP-1002
    name: Jo Carter
    joinedYear: 2023
    isActive: false
    rewardPoints: 4
`

// LoadSeed parses seed YAML.
func LoadSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return s, nil
}

// LoadSeedFile reads and parses a seed file, falling back to DefaultSeed
// when path is empty.
func LoadSeedFile(path string) (Seed, error) {
	if path == "" {
		return LoadSeed([]byte(DefaultSeed))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return LoadSeed(data)
}

// Apply writes the seed into the store. Existing owners are replaced;
// passwords default to the starter convention.
func (s Seed) Apply(ctx context.Context, store *Store) error {
	for _, so := range s.Owners {
		password := so.Password
		if password == "" {
			password = so.OwnerNumber + "-START"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		err = store.SaveOwner(ctx, Owner{
			OwnerNumber:  so.OwnerNumber,
			Name:         so.Name,
			JoinedYear:   so.JoinedYear,
			IsActive:     so.IsActive,
			PasswordHash: string(hash),
			RewardPoints: so.RewardPoints,
		})
		if err != nil {
			return err
		}
		for _, sv := range so.Viewings {
			v := viewing.Viewing{
				ViewingID:       sv.ViewingID,
				ViewingDate:     sv.Date,
				ViewerName:      sv.ViewerName,
				Status:          sv.Status,
				PointsAllocated: sv.PointsAllocated,
			}
			if err := store.InsertViewing(ctx, so.OwnerNumber, v, "", "", "", "seed"); err != nil {
				return err
			}
		}
	}
	return nil
}
