package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/user"
	"golang.org/x/sync/errgroup"
)

const topProductsLimit = 10

type UserReader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type OrderStatsReader interface {
	MyStats(ctx context.Context, userID uuid.UUID) (*order.Stats, error)
}

type Service interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	UserDetails(ctx context.Context, id uuid.UUID) (*UserDetails, error)
}

type service struct {
	repo   Repository
	users  UserReader
	orders OrderStatsReader
	now    func() time.Time
}

func NewService(repo Repository, users UserReader, orders OrderStatsReader) Service {
	return &service{
		repo:   repo,
		users:  users,
		orders: orders,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DashboardStats runs every aggregate concurrently and fails if any of them
// does.
func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	since := s.now().AddDate(-1, 0, 0)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.repo.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.repo.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.repo.CountOrders(ctx)
		return err
	})
	g.Go(func() error {
		rev, err := s.repo.Revenue(ctx)
		if err != nil {
			return err
		}
		stats.TotalRevenue = rev.Total
		stats.AverageOrderValue = rev.Average
		return nil
	})
	g.Go(func() (err error) {
		stats.MonthlyRevenue, err = s.repo.MonthlyRevenue(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		stats.TopProducts, err = s.repo.TopProducts(ctx, topProductsLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service: failed to build dashboard statistics")
		return nil, fmt.Errorf("service: failed to build dashboard statistics: %w", err)
	}
	return stats, nil
}

func (s *service) UserDetails(ctx context.Context, id uuid.UUID) (*UserDetails, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.orders.MyStats(ctx, id)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to load user order statistics")
		return nil, fmt.Errorf("service: failed to load order statistics for user %s: %w", id, err)
	}

	return &UserDetails{User: u, OrderStats: stats.OrdersByStatus}, nil
}
