package billing

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// SubscriptionEvent is the parsed form of a billing-processor subscription
// object, the input to the state machine.
type SubscriptionEvent struct {
	SubscriptionID    string
	CustomerID        string
	PriceID           string
	ProviderStatus    string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	HasByok           bool
	Timestamp         time.Time
	RawJSON           string
}

// InvoiceEvent carries the subset of an invoice payload the state machine
// needs. Invoices do not carry full subscription state; the machine does a
// secondary lookup by SubscriptionID.
type InvoiceEvent struct {
	SubscriptionID string
	CustomerID     string
	Paid           bool
	Timestamp      time.Time
}

type subscriptionObject struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Paid         bool   `json:"paid"`
}

// ParseSubscriptionEvent parses a subscription object payload. The provider
// timestamp comes from the event envelope, not the object.
func ParseSubscriptionEvent(payload []byte, ts time.Time) (SubscriptionEvent, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(payload, &obj); err != nil {
		return SubscriptionEvent{}, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return SubscriptionEvent{}, errors.New("subscription payload missing id")
	}

	ev := SubscriptionEvent{
		SubscriptionID:    strings.TrimSpace(obj.ID),
		CustomerID:        strings.TrimSpace(obj.Customer),
		ProviderStatus:    strings.TrimSpace(obj.Status),
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		HasByok:           strings.EqualFold(obj.Metadata["byok"], "true"),
		Timestamp:         ts,
		RawJSON:           string(payload),
	}
	if len(obj.Items.Data) > 0 {
		ev.PriceID = strings.TrimSpace(obj.Items.Data[0].Price.ID)
	}
	if obj.CurrentPeriodEnd > 0 {
		t := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
		ev.CurrentPeriodEnd = &t
	}
	return ev, nil
}

// ParseInvoiceEvent parses an invoice object payload.
func ParseInvoiceEvent(payload []byte, ts time.Time) (InvoiceEvent, error) {
	var obj invoiceObject
	if err := json.Unmarshal(payload, &obj); err != nil {
		return InvoiceEvent{}, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return InvoiceEvent{}, errors.New("invoice payload missing id")
	}
	return InvoiceEvent{
		SubscriptionID: strings.TrimSpace(obj.Subscription),
		CustomerID:     strings.TrimSpace(obj.Customer),
		Paid:           obj.Paid,
		Timestamp:      ts,
	}, nil
}
