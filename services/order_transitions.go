package services

import (
	"fmt"

	"github.com/yeremiapane/dinein-lifecycle/models"
)

const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

// TransitionPolicy is the table of permitted order status edges. Setting an
// order to its current status never consults the policy: it is a no-op.
type TransitionPolicy struct {
	name  string
	edges map[string]map[string]bool
}

// strictOrderEdges is the kitchen's forward graph.
var strictOrderEdges = map[string][]string{
	models.OrderStatusPending:        {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:      {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusReadyForPickup, models.OrderStatusCancelled},
	models.OrderStatusReadyForPickup: {models.OrderStatusDelivered},
}

// PermissivePolicy allows every edge between two different enumerated
// statuses, backward moves included. This is the behaviour devices rely on today.
func PermissivePolicy() *TransitionPolicy {
	edges := make(map[string]map[string]bool, len(models.OrderStatuses))
	for _, from := range models.OrderStatuses {
		edges[from] = make(map[string]bool, len(models.OrderStatuses))
		for _, to := range models.OrderStatuses {
			if from != to {
				edges[from][to] = true
			}
		}
	}
	return &TransitionPolicy{name: PolicyPermissive, edges: edges}
}

// StrictPolicy only allows forward moves of the kitchen graph.
func StrictPolicy() *TransitionPolicy {
	edges := make(map[string]map[string]bool, len(strictOrderEdges))
	for from, tos := range strictOrderEdges {
		edges[from] = make(map[string]bool, len(tos))
		for _, to := range tos {
			edges[from][to] = true
		}
	}
	return &TransitionPolicy{name: PolicyStrict, edges: edges}
}

// PolicyByName resolves ORDER_TRANSITION_POLICY.
func PolicyByName(name string) (*TransitionPolicy, error) {
	switch name {
	case "", PolicyPermissive:
		return PermissivePolicy(), nil
	case PolicyStrict:
		return StrictPolicy(), nil
	}
	return nil, fmt.Errorf("unknown order transition policy %q", name)
}

func (p *TransitionPolicy) Name() string {
	return p.name
}

func (p *TransitionPolicy) Allows(from, to string) bool {
	return p.edges[from][to]
}
