// Package resolve maps an extracted customer name onto the customer
// directory, individuals first, then stores.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Resolver performs two-tier customer name resolution against a Directory.
type Resolver struct {
	dir    repository.Directory
	logger *slog.Logger
}

func NewResolver(dir repository.Directory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dir: dir, logger: logger}
}

// Resolve matches the candidate name to a customer. Names of two or more
// tokens are first tried as an individual: the first token against first
// names and the remaining tokens, rejoined, against last names. If that tier
// yields nothing — including when a matched individual has no customer row —
// the whole candidate is tried against store names. A miss on both tiers is a
// normal outcome with Kind "none", never an error.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (entity.MatchResult, error) {
	none := entity.MatchResult{Detail: entity.CustomerDetail{Kind: entity.MatchNone}}

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return none, nil
	}

	parts := strings.Fields(candidate)
	if len(parts) >= 2 {
		firstName := parts[0]
		lastName := strings.Join(parts[1:], " ")

		ind, err := r.dir.FindIndividual(ctx, firstName, lastName)
		if err != nil {
			return none, err
		}
		if ind != nil {
			customer, err := r.dir.CustomerByPersonID(ctx, ind.BusinessEntityID)
			if err != nil {
				return none, err
			}
			if customer != nil {
				r.logger.Info("resolve.match.individual",
					"candidate", candidate,
					"business_entity_id", ind.BusinessEntityID,
					"customer_id", customer.CustomerID,
				)
				return entity.MatchResult{
					Customer: customer,
					Detail:   entity.CustomerDetail{Kind: entity.MatchIndividual, Individual: ind},
				}, nil
			}
			// Detail row without a customer reference. Fall through to the
			// store tier rather than failing.
			r.logger.Warn("resolve.individual.orphaned",
				"candidate", candidate,
				"business_entity_id", ind.BusinessEntityID,
			)
		}
	}

	store, err := r.dir.FindStore(ctx, candidate)
	if err != nil {
		return none, err
	}
	if store != nil {
		customer, err := r.dir.CustomerByStoreID(ctx, store.BusinessEntityID)
		if err != nil {
			return none, err
		}
		if customer != nil {
			r.logger.Info("resolve.match.store",
				"candidate", candidate,
				"business_entity_id", store.BusinessEntityID,
				"customer_id", customer.CustomerID,
			)
			return entity.MatchResult{
				Customer: customer,
				Detail:   entity.CustomerDetail{Kind: entity.MatchStore, Store: store},
			}, nil
		}
		r.logger.Warn("resolve.store.orphaned",
			"candidate", candidate,
			"business_entity_id", store.BusinessEntityID,
		)
	}

	r.logger.Info("resolve.no_match", "candidate", candidate)
	return none, nil
}
