package service

import (
	"context"
	"fmt"

	"attraction-booking/internal/model"
	"attraction-booking/internal/repository"

	"github.com/rs/zerolog"
)

// offerService implements OfferService.
type offerService struct {
	offerRepo repository.OfferRepository
	rules     RuleInvalidator
	logger    zerolog.Logger
}

// NewOfferService creates a new offer service. rules may be nil when no
// rule cache is configured.
func NewOfferService(offerRepo repository.OfferRepository, rules RuleInvalidator, logger zerolog.Logger) OfferService {
	return &offerService{
		offerRepo: offerRepo,
		rules:     rules,
		logger:    logger.With().Str("service", "offer").Logger(),
	}
}

// CreateOffer stores a validated offer and its rules.
func (s *offerService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error) {
	if req == nil {
		return nil, model.Validation(model.ErrCodeInvalidOffer, "offer request is nil")
	}
	if err := req.Validate(); err != nil {
		s.logger.Warn().Err(err).Str("title", req.Title).Msg("offer rejected")
		return nil, model.Validation(model.ErrCodeInvalidOffer, "invalid offer: %v", err)
	}

	offer := &model.Offer{
		Title:         req.Title,
		RuleType:      req.RuleType,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		ValidFrom:     req.ValidFrom,
		ValidTo:       req.ValidTo,
		Active:        req.Active,
		Rules:         append([]model.OfferRule(nil), req.Rules...),
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		s.logger.Error().Err(err).Str("title", req.Title).Msg("failed to create offer")
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.invalidate(ctx, offer.ID)
	s.logger.Info().Int64("offer_id", offer.ID).Int("rule_count", len(offer.Rules)).Msg("offer created")
	return offer, nil
}

// GetOffer retrieves an offer by ID.
func (s *offerService) GetOffer(ctx context.Context, id int64) (*model.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("offer_id", id).Msg("failed to get offer")
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer == nil {
		return nil, model.ErrOfferNotFound
	}
	return offer, nil
}

// DeleteOffer deletes an offer; its rules go with it.
func (s *offerService) DeleteOffer(ctx context.Context, id int64) error {
	deleted, err := s.offerRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("offer_id", id).Msg("failed to delete offer")
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if !deleted {
		return model.ErrOfferNotFound
	}

	s.invalidate(ctx, id)
	s.logger.Info().Int64("offer_id", id).Msg("offer deleted")
	return nil
}

func (s *offerService) invalidate(ctx context.Context, offerID int64) {
	if s.rules == nil {
		return
	}
	if err := s.rules.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Int64("offer_id", offerID).Msg("failed to invalidate rule cache")
	}
}
