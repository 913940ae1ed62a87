package workflow

import (
	"fmt"
	"slices"

	"distributor/internal/models"
)

// Action is an externally triggered operation on an order.
type Action string

const (
	ActionCreate          Action = "create"
	ActionConfirm         Action = "confirm"
	ActionDispatch        Action = "dispatch"
	ActionRequestStock    Action = "request_stock"
	ActionRequestPayment  Action = "request_payment"
	ActionPayManufacturer Action = "pay_manufacturer"
	ActionShipStock       Action = "ship_stock"
	ActionDeliver         Action = "deliver"
)

// Rule binds an action to the one role allowed to run it and the states it may start from.
// An empty OrderFrom or nil StockFrom leaves that dimension unconstrained; an empty
// OrderTo or StockTo leaves that status untouched.
type Rule struct {
	Role      models.Role
	OrderFrom models.OrderStatus
	StockFrom []models.StockStatus
	OrderTo   models.OrderStatus
	StockTo   models.StockStatus
}

var rules = map[Action]Rule{
	ActionCreate: {
		Role:    models.RoleShopkeeper,
		OrderTo: models.OrderPlaced,
		StockTo: models.StockNone,
	},
	ActionConfirm: {
		Role:      models.RoleSalesman,
		OrderFrom: models.OrderPlaced,
		OrderTo:   models.OrderConfirmed,
	},
	ActionDispatch: {
		Role:      models.RoleWarehouseManager,
		OrderFrom: models.OrderConfirmed,
		StockFrom: []models.StockStatus{models.StockNone, models.StockShipped},
		OrderTo:   models.OrderDispatched,
	},
	ActionRequestStock: {
		Role:      models.RoleWarehouseManager,
		OrderFrom: models.OrderConfirmed,
		StockFrom: []models.StockStatus{models.StockNone},
		StockTo:   models.StockRequested,
	},
	ActionRequestPayment: {
		Role:      models.RoleManufacturer,
		StockFrom: []models.StockStatus{models.StockRequested},
		StockTo:   models.StockPaymentRequested,
	},
	ActionPayManufacturer: {
		Role:      models.RoleWarehouseManager,
		StockFrom: []models.StockStatus{models.StockPaymentRequested},
		StockTo:   models.StockPaidToManufacturer,
	},
	ActionShipStock: {
		Role:      models.RoleManufacturer,
		StockFrom: []models.StockStatus{models.StockPaidToManufacturer},
		StockTo:   models.StockShipped,
	},
	ActionDeliver: {
		Role:      models.RoleSalesman,
		OrderFrom: models.OrderDispatched,
		OrderTo:   models.OrderDelivered,
	},
}

// ParseAction validates an action name coming from a request.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if _, ok := rules[a]; !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, name)
	}
	return a, nil
}

// RuleFor returns the rule registered for a.
func RuleFor(a Action) (Rule, bool) {
	r, ok := rules[a]
	return r, ok
}

// Authorize fails with ErrForbidden unless role is the one permitted to run a.
func Authorize(a Action, role models.Role) error {
	r, ok := rules[a]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, a)
	}
	if r.Role != role {
		return fmt.Errorf("%w: %s requires role %s, caller is %s", ErrForbidden, a, r.Role, role)
	}
	return nil
}

// Check fails with ErrInvalidTransition when o is not in a state a can start from.
// It never mutates o.
func Check(a Action, o *models.Order) error {
	r, ok := rules[a]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, a)
	}
	if a == ActionCreate {
		if o.Status != "" {
			return fmt.Errorf("%w: order %d already exists", ErrInvalidTransition, o.ID)
		}
		return nil
	}
	if r.OrderFrom != "" && o.Status != r.OrderFrom {
		return fmt.Errorf("%w: cannot %s order %d in status %s", ErrInvalidTransition, a, o.ID, o.Status)
	}
	if r.StockFrom != nil && !slices.Contains(r.StockFrom, o.StockStatus) {
		return fmt.Errorf("%w: cannot %s order %d while stock status is %s", ErrInvalidTransition, a, o.ID, o.StockStatus)
	}
	return nil
}

// Apply checks and then moves o to the rule's target states. Targets are always the
// immediate successor of the current state, so statuses only ever move forward.
func Apply(a Action, o *models.Order) error {
	if err := Check(a, o); err != nil {
		return err
	}
	r := rules[a]
	if a == ActionCreate {
		o.Status = r.OrderTo
		o.StockStatus = r.StockTo
		return nil
	}
	if r.OrderTo != "" {
		if next, ok := NextOrderStatus(o.Status); !ok || next != r.OrderTo {
			return fmt.Errorf("%w: %s -> %s is not a forward step", ErrInvalidTransition, o.Status, r.OrderTo)
		}
	}
	if r.StockTo != "" {
		if next, ok := NextStockStatus(o.StockStatus); !ok || next != r.StockTo {
			return fmt.Errorf("%w: %s -> %s is not a forward step", ErrInvalidTransition, o.StockStatus, r.StockTo)
		}
	}
	if r.OrderTo != "" {
		o.Status = r.OrderTo
	}
	if r.StockTo != "" {
		o.StockStatus = r.StockTo
	}
	return nil
}
