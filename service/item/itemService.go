package itemsvc

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
	itemrepo "github.com/AbderaoufHammouda/Dz-rent-it-V2/repository/item"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/util/database"
)

var (
	ErrBadInput = errors.New("invalid payload")
	ErrNotOwner = errors.New("not the item owner")
	ErrNotFound = errors.New("item not found")
)

type Repo interface {
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, it *model.Item) error
	Get(ctx context.Context, id int64) (*model.Item, error)
	ListActive(ctx context.Context) ([]model.Item, error)
}

var _ Repo = (itemrepo.Repo)(nil)

type UpdateReq struct {
	Title         string
	Description   string
	PricePerDay   decimal.Decimal
	DepositAmount decimal.Decimal
	IsActive      bool
}

type Service interface {
	Create(ctx context.Context, ownerID int64, title, description string, pricePerDay, deposit decimal.Decimal) (*model.Item, error)
	Update(ctx context.Context, actorID, itemID int64, req UpdateReq) (*model.Item, error)
	Get(ctx context.Context, id int64) (*model.Item, error)
	ListActive(ctx context.Context) ([]model.Item, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func validate(title string, price, deposit decimal.Decimal) error {
	if title == "" || price.IsNegative() || deposit.IsNegative() {
		return ErrBadInput
	}
	// Deposit convention: at least the daily price.
	if deposit.LessThan(price) {
		return ErrBadInput
	}
	return nil
}

func (s *service) Create(ctx context.Context, ownerID int64, title, description string, pricePerDay, deposit decimal.Decimal) (*model.Item, error) {
	if err := validate(title, pricePerDay, deposit); err != nil {
		return nil, err
	}
	it := &model.Item{
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		PricePerDay:   pricePerDay,
		DepositAmount: deposit,
		IsActive:      true,
	}
	if err := s.r.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Update(ctx context.Context, actorID, itemID int64, req UpdateReq) (*model.Item, error) {
	it, err := s.r.Get(ctx, itemID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if it.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	if err := validate(req.Title, req.PricePerDay, req.DepositAmount); err != nil {
		return nil, err
	}

	it.Title = req.Title
	it.Description = req.Description
	it.PricePerDay = req.PricePerDay
	it.DepositAmount = req.DepositAmount
	it.IsActive = req.IsActive

	if err := s.r.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Item, error) {
	it, err := s.r.Get(ctx, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

func (s *service) ListActive(ctx context.Context) ([]model.Item, error) {
	return s.r.ListActive(ctx)
}
