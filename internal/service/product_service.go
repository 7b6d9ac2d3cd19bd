package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/model"
	"poliventas-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProductService struct {
	repo ProductRepository
}

func NewProductService(r ProductRepository) *ProductService {
	return &ProductService{repo: r}
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	Images      []string
}

// ProductPatch: los campos nil no se modifican.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Price       *float64
	Stock       *int
	Images      []string
	State       *model.ProductState
}

func validateProduct(name string, price float64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: nombre requerido", ErrInvalidInput)
	}
	if price <= 0 {
		return fmt.Errorf("%w: el precio debe ser positivo", ErrInvalidInput)
	}
	if stock < 0 {
		return fmt.Errorf("%w: el stock no puede ser negativo", ErrInvalidInput)
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, r Requester, in ProductInput) (*model.Product, error) {
	if !r.CanSell() {
		return nil, ErrForbidden
	}
	if err := validateProduct(in.Name, in.Price, in.Stock); err != nil {
		return nil, err
	}

	p := &model.Product{
		SellerID:    r.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Price:       roundMoney(in.Price),
		Stock:       in.Stock,
		Images:      in.Images,
		State:       model.ProductActive,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product created",
		zap.String("product_id", p.ID.Hex()),
		zap.String("seller_id", r.ID.Hex()),
	)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	return s.repo.Find(ctx, f)
}

// Update lo hace solo el dueño. El stock que se escribe acá es el disponible,
// las reservas de órdenes en curso ya están descontadas. Solo se escriben los
// campos del patch.
func (s *ProductService) Update(ctx context.Context, r Requester, id primitive.ObjectID, patch ProductPatch) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != r.ID && !r.IsAdmin() {
		return nil, ErrForbidden
	}

	var u model.ProductUpdate
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
		u.Name = &p.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
		u.Description = &p.Description
	}
	if patch.Category != nil {
		p.Category = strings.ToLower(strings.TrimSpace(*patch.Category))
		u.Category = &p.Category
	}
	if patch.Price != nil {
		p.Price = roundMoney(*patch.Price)
		u.Price = &p.Price
	}
	if patch.Stock != nil {
		u.StockSeen = p.Stock
		p.Stock = *patch.Stock
		u.Stock = &p.Stock
	}
	if patch.Images != nil {
		p.Images = patch.Images
		u.Images = p.Images
	}
	if patch.State != nil {
		if *patch.State != model.ProductActive && *patch.State != model.ProductPaused {
			return nil, fmt.Errorf("%w: estado %q", ErrInvalidInput, *patch.State)
		}
		p.State = *patch.State
		u.State = &p.State
	}

	if err := validateProduct(p.Name, p.Price, p.Stock); err != nil {
		return nil, err
	}
	err = s.repo.Update(ctx, p.ID, u)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrStockChanged
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
