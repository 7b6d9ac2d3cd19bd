package service

import (
	"context"
	"fmt"
	"strings"

	"poliventas-service/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethodService struct {
	repo PaymentMethodRepository
}

func NewPaymentMethodService(r PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{repo: r}
}

type PaymentMethodInput struct {
	Type          model.PaymentType
	Bank          string
	AccountNumber string
	Holder        string
	QRImageURL    string
	Details       string
}

// validate exige los datos mínimos para que el comprador pueda pagar.
func (in PaymentMethodInput) validate() error {
	switch in.Type {
	case model.PaymentTransfer:
		if strings.TrimSpace(in.Bank) == "" || strings.TrimSpace(in.AccountNumber) == "" || strings.TrimSpace(in.Holder) == "" {
			return fmt.Errorf("%w: transferencia requiere banco, número de cuenta y titular", ErrInvalidInput)
		}
	case model.PaymentQR:
		if strings.TrimSpace(in.QRImageURL) == "" {
			return fmt.Errorf("%w: qr requiere la imagen del código", ErrInvalidInput)
		}
	case model.PaymentPickup:
		if strings.TrimSpace(in.Details) == "" {
			return fmt.Errorf("%w: retiro requiere lugar y horario en el detalle", ErrInvalidInput)
		}
	case model.PaymentCard:
		return fmt.Errorf("%w: tarjeta es un método de la plataforma", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: tipo %q", ErrInvalidInput, in.Type)
	}
	return nil
}

func (s *PaymentMethodService) Create(ctx context.Context, r Requester, in PaymentMethodInput) (*model.PaymentMethod, error) {
	if !r.CanSell() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	pm := &model.PaymentMethod{SellerID: r.ID, Active: true}
	apply(pm, in)
	if err := s.repo.Create(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

func (s *PaymentMethodService) ListMine(ctx context.Context, r Requester) ([]*model.PaymentMethod, error) {
	return s.repo.FindBySeller(ctx, r.ID, false)
}

// ListForSeller es lo que ve un comprador al elegir cómo pagar.
func (s *PaymentMethodService) ListForSeller(ctx context.Context, sellerID primitive.ObjectID) ([]*model.PaymentMethod, error) {
	return s.repo.FindBySeller(ctx, sellerID, true)
}

func (s *PaymentMethodService) Update(ctx context.Context, r Requester, id primitive.ObjectID, in PaymentMethodInput, active bool) (*model.PaymentMethod, error) {
	pm, err := s.owned(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	apply(pm, in)
	pm.Active = active
	if err := s.repo.Update(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

func (s *PaymentMethodService) Deactivate(ctx context.Context, r Requester, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, r, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *PaymentMethodService) owned(ctx context.Context, r Requester, id primitive.ObjectID) (*model.PaymentMethod, error) {
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pm.SellerID != r.ID {
		return nil, ErrForbidden
	}
	return pm, nil
}

func apply(pm *model.PaymentMethod, in PaymentMethodInput) {
	pm.Type = in.Type
	pm.Bank = strings.TrimSpace(in.Bank)
	pm.AccountNumber = strings.TrimSpace(in.AccountNumber)
	pm.Holder = strings.TrimSpace(in.Holder)
	pm.QRImageURL = strings.TrimSpace(in.QRImageURL)
	pm.Details = strings.TrimSpace(in.Details)
}
