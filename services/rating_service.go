package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/dinein-lifecycle/models"
	"github.com/yeremiapane/dinein-lifecycle/store"
)

// ItemRatingDraft rates one line of a delivered order.
type ItemRatingDraft struct {
	ItemID  string `json:"item_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitRatings stores ratings (1 to 5) on the lines of a delivered order.
func (e *Engine) SubmitRatings(ctx context.Context, orderID string, ratings []ItemRatingDraft) (*models.Order, error) {
	if len(ratings) == 0 {
		return nil, InvalidInput("at least one rating is required")
	}
	for _, r := range ratings {
		if r.Rating < 1 || r.Rating > 5 {
			return nil, InvalidInput("rating for item %s must be between 1 and 5", r.ItemID)
		}
	}

	order, err := e.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order", orderID)
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, Conflict("order %s is %s, only delivered orders can be rated", orderID, order.Status).
			With("status", order.Status)
	}

	lines := make(map[string]bool, len(order.Items))
	for _, it := range order.Items {
		lines[it.ID] = true
	}
	toSave := make([]store.ItemRating, 0, len(ratings))
	for _, r := range ratings {
		if !lines[r.ItemID] {
			return nil, InvalidInput("item %s is not part of order %s", r.ItemID, orderID)
		}
		toSave = append(toSave, store.ItemRating{ItemID: r.ItemID, Rating: r.Rating, Comment: r.Comment})
	}

	if err := e.store.SaveItemRatings(ctx, orderID, toSave); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("order item not found")
		}
		return nil, Unexpected(err, "failed to save ratings of order %s", orderID)
	}

	rated, err := e.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, Unexpected(err, "failed to reload order %s", orderID)
	}
	e.commit(ctx, models.Transition{Kind: models.TransitionRatingsSubmitted, Order: rated})
	return rated, nil
}
