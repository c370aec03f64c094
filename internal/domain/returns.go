package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "Requested"
	ReturnApproved  ReturnStatus = "Approved"
	ReturnReceived  ReturnStatus = "Received"
	ReturnRefunded  ReturnStatus = "Refunded"
	ReturnRejected  ReturnStatus = "Rejected"
)

func ParseReturnStatus(s string) (ReturnStatus, bool) {
	switch ReturnStatus(s) {
	case ReturnRequested, ReturnApproved, ReturnReceived, ReturnRefunded, ReturnRejected:
		return ReturnStatus(s), true
	}
	return "", false
}

// returnTransitions is the explicit transition table. Any non-terminal
// status may move to any status, which keeps mis-click correction possible
// and Rejected reachable from every live request. Refunded and Rejected
// are terminal.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnRequested, ReturnApproved, ReturnReceived, ReturnRefunded, ReturnRejected},
	ReturnApproved:  {ReturnRequested, ReturnApproved, ReturnReceived, ReturnRefunded, ReturnRejected},
	ReturnReceived:  {ReturnRequested, ReturnApproved, ReturnReceived, ReturnRefunded, ReturnRejected},
	ReturnRefunded:  {},
	ReturnRejected:  {},
}

func CanTransition(from, to ReturnStatus) bool {
	for _, s := range returnTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ReturnItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	Seller    string `json:"seller"`
}

type ReturnHistoryEntry struct {
	ActorRole Role      `json:"actor_role"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReturnRequest items are immutable after creation; only Status and History
// change, guarded by Revision.
type ReturnRequest struct {
	ID            uuid.UUID            `json:"id"`
	OrderID       uuid.UUID            `json:"order_id"`
	CustomerEmail string               `json:"customer_email"`
	Items         []ReturnItem         `json:"items"`
	Status        ReturnStatus         `json:"status"`
	Notes         string               `json:"notes,omitempty"`
	History       []ReturnHistoryEntry `json:"history"`
	Revision      int64                `json:"revision"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Sellers returns the distinct sellers referenced by the request items,
// in first-seen order.
func (r *ReturnRequest) Sellers() []string {
	seen := make(map[string]struct{}, len(r.Items))
	var out []string
	for _, it := range r.Items {
		if it.Seller == "" {
			continue
		}
		if _, ok := seen[it.Seller]; ok {
			continue
		}
		seen[it.Seller] = struct{}{}
		out = append(out, it.Seller)
	}
	return out
}

// BelongsEntirelyTo reports whether every item in the request was sold by
// the given vendor. A multi-vendor return can only be progressed by an admin.
func (r *ReturnRequest) BelongsEntirelyTo(vendorID string) bool {
	if len(r.Items) == 0 {
		return false
	}
	for _, it := range r.Items {
		if it.Seller != vendorID {
			return false
		}
	}
	return true
}
