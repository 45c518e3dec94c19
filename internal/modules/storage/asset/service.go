package asset

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mx-space/asset-gateway/internal/pkg/cloudinary"
	"github.com/mx-space/asset-gateway/internal/pkg/metrics"
	"go.uber.org/zap"
)

const (
	opDeleteByTokens    = "delete_by_tokens"
	opDeleteByPublicIDs = "delete_by_public_ids"
)

// Deleter is the slice of the media provider's API the gateway needs.
// *cloudinary.Client satisfies it.
type Deleter interface {
	DeleteByToken(ctx context.Context, token string) (json.RawMessage, error)
	DeleteResources(ctx context.Context, publicIDs []string, deliveryType, resourceType string, invalidate bool) (json.RawMessage, error)
}

// Service translates deletion requests into provider calls.
type Service struct {
	deleter Deleter
	logger  *zap.Logger
}

func NewService(deleter Deleter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deleter: deleter, logger: logger}
}

// DeleteByTokens deletes each non-empty token in order, one call at a time.
// A failing token is recorded in Failed and never stops the rest of the batch.
func (s *Service) DeleteByTokens(ctx context.Context, tokens []string) DeletionReport {
	report := DeletionReport{OK: true, Deleted: []DeletedToken{}, Failed: []FailedToken{}}

	given := len(tokens)
	tokens = compact(tokens)
	countSkipped(opDeleteByTokens, given-len(tokens))
	if len(tokens) == 0 {
		return report
	}

	for _, tok := range tokens {
		outcome := s.deleteToken(ctx, tok)
		if outcome.Err != nil {
			s.logger.Warn("delete by token failed", errorFields(outcome.Err)...)
			metrics.AssetDeletions.WithLabelValues(opDeleteByTokens, metrics.OutcomeFailed).Inc()
			report.Failed = append(report.Failed, FailedToken{Token: tok, Error: outcome.Err.Error()})
			continue
		}
		metrics.AssetDeletions.WithLabelValues(opDeleteByTokens, metrics.OutcomeDeleted).Inc()
		report.Deleted = append(report.Deleted, DeletedToken{Token: tok, Result: outcome.Result})
	}

	s.logger.Info("token batch processed",
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}

func (s *Service) deleteToken(ctx context.Context, token string) TokenOutcome {
	res, err := s.deleter.DeleteByToken(ctx, token)
	if err != nil {
		return TokenOutcome{Token: token, Err: err}
	}
	return TokenOutcome{Token: token, Result: res}
}

// DeleteByPublicIDs issues a single batched delete with CDN invalidation.
// The batch is atomic from the caller's view: any error is returned as is.
func (s *Service) DeleteByPublicIDs(ctx context.Context, publicIDs []string, resourceType, deliveryType string) (json.RawMessage, error) {
	ids := compact(publicIDs)
	countSkipped(opDeleteByPublicIDs, len(publicIDs)-len(ids))
	if len(ids) == 0 {
		return emptyDeleteResult, nil
	}

	res, err := s.deleter.DeleteResources(ctx, ids, deliveryType, resourceType, true)
	if err != nil {
		metrics.AssetDeletions.WithLabelValues(opDeleteByPublicIDs, metrics.OutcomeFailed).Add(float64(len(ids)))
		s.logger.Warn("delete by public ids failed", append(errorFields(err),
			zap.Int("count", len(ids)),
			zap.String("resource_type", resourceType),
			zap.String("type", deliveryType),
		)...)
		return nil, err
	}

	metrics.AssetDeletions.WithLabelValues(opDeleteByPublicIDs, metrics.OutcomeDeleted).Add(float64(len(ids)))
	s.logger.Info("public id batch deleted",
		zap.Int("count", len(ids)),
		zap.String("resource_type", resourceType),
		zap.String("type", deliveryType),
	)
	return res, nil
}

func countSkipped(op string, n int) {
	if n > 0 {
		metrics.AssetDeletions.WithLabelValues(op, metrics.OutcomeSkipped).Add(float64(n))
	}
}

func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var apiErr *cloudinary.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status", apiErr.StatusCode))
	}
	return fields
}
