// Package seed loads a sample catalog and an administrator account.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/category"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/user"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

type Data struct {
	Admin struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"admin"`
	Categories []CategoryData `yaml:"categories"`
	Products   []ProductData  `yaml:"products"`
}

type CategoryData struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Featured    bool   `yaml:"featured"`
	SortOrder   int    `yaml:"sort_order"`
}

type ProductData struct {
	Name             string            `yaml:"name"`
	Description      string            `yaml:"description"`
	ShortDescription string            `yaml:"short_description"`
	Price            string            `yaml:"price"`
	DiscountPrice    string            `yaml:"discount_price"`
	Category         string            `yaml:"category"`
	Subcategory      string            `yaml:"subcategory"`
	Brand            string            `yaml:"brand"`
	Model            string            `yaml:"model"`
	SKU              string            `yaml:"sku"`
	Image            string            `yaml:"image"`
	Specifications   map[string]string `yaml:"specifications"`
	Features         []string          `yaml:"features"`
	Tags             []string          `yaml:"tags"`
	Stock            int               `yaml:"stock"`
	Featured         bool              `yaml:"featured"`
	Trending         bool              `yaml:"trending"`
	BestSeller       bool              `yaml:"best_seller"`
}

// Parse decodes seed data; an empty input selects the bundled sample.
func Parse(raw []byte) (*Data, error) {
	if len(raw) == 0 {
		raw = defaultData
	}
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("seed: invalid data: %w", err)
	}
	return &data, nil
}

func (p ProductData) input() (product.CreateInput, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return product.CreateInput{}, fmt.Errorf("seed: product %s: invalid price: %w", p.Name, err)
	}
	in := product.CreateInput{
		Name:             p.Name,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            price,
		Category:         p.Category,
		Subcategory:      p.Subcategory,
		Brand:            p.Brand,
		Model:            p.Model,
		SKU:              p.SKU,
		Features:         p.Features,
		Tags:             p.Tags,
		Stock:            p.Stock,
		Featured:         p.Featured,
		Trending:         p.Trending,
		BestSeller:       p.BestSeller,
	}
	if p.DiscountPrice != "" {
		discount, err := decimal.NewFromString(p.DiscountPrice)
		if err != nil {
			return product.CreateInput{}, fmt.Errorf("seed: product %s: invalid discount price: %w", p.Name, err)
		}
		in.DiscountPrice = &discount
	}
	if p.Image != "" {
		in.Images = []product.Image{{URL: p.Image, Alt: p.Name}}
	}

	keys := make([]string, 0, len(p.Specifications))
	for k := range p.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		in.Specifications = append(in.Specifications, product.Specification{Key: k, Value: p.Specifications[k]})
	}
	return in, nil
}

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (uuid.UUID, error)
}

type CategoryCreator interface {
	Create(ctx context.Context, in category.Input) (*category.Category, error)
}

type ProductCreator interface {
	CreateProduct(ctx context.Context, actor uuid.UUID, in product.CreateInput) (*product.Product, error)
}

type Seeder struct {
	Users      AdminStore
	Categories CategoryCreator
	Products   ProductCreator
}

type Result struct {
	AdminCreated bool
	Categories   int
	Products     int
}

// Run is idempotent: records that already exist are skipped.
func (s *Seeder) Run(ctx context.Context, data *Data, adminPassword string) (*Result, error) {
	res := &Result{}

	adminID, created, err := s.ensureAdmin(ctx, data, adminPassword)
	if err != nil {
		return nil, err
	}
	res.AdminCreated = created

	for _, c := range data.Categories {
		c := c
		_, err := s.Categories.Create(ctx, category.Input{
			Name:        &c.Name,
			Description: &c.Description,
			Featured:    &c.Featured,
			SortOrder:   &c.SortOrder,
		})
		if errors.Is(err, apperr.ErrConflict) {
			log.Debug().Str("category", c.Name).Msg("seed: category exists, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed: category %s: %w", c.Name, err)
		}
		res.Categories++
	}

	for _, p := range data.Products {
		in, err := p.input()
		if err != nil {
			return nil, err
		}
		_, err = s.Products.CreateProduct(ctx, adminID, in)
		if errors.Is(err, apperr.ErrConflict) {
			log.Debug().Str("sku", p.SKU).Msg("seed: product exists, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed: product %s: %w", p.Name, err)
		}
		res.Products++
	}

	log.Info().
		Bool("admin_created", res.AdminCreated).
		Int("categories", res.Categories).
		Int("products", res.Products).
		Msg("seed: database seeding completed")
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, data *Data, password string) (uuid.UUID, bool, error) {
	existing, err := s.Users.GetByEmail(ctx, data.Admin.Email)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return uuid.Nil, false, fmt.Errorf("seed: failed to look up admin: %w", err)
	}

	if len(password) < 8 {
		return uuid.Nil, false, apperr.InvalidArgument("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("seed: failed to hash admin password: %w", err)
	}

	id, err := s.Users.Create(ctx, &user.User{
		Name:         data.Admin.Name,
		Email:        data.Admin.Email,
		PasswordHash: string(hash),
		Role:         identity.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("seed: failed to create admin: %w", err)
	}
	return id, true, nil
}
