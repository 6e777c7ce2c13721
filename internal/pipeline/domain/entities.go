// Package domain holds the pipeline records and the pure rules over them:
// status vocabularies, allowed transitions and stage classification.
package domain

import (
	"time"

	"hoareca_growth_hub/internal/remarks"

	"github.com/google/uuid"
)

// Prospect is an unqualified outlet, the root of the funnel.
type Prospect struct {
	ID             uuid.UUID           `json:"id"`
	RestaurantName string              `json:"restaurantName"`
	Pincode        string              `json:"pincode"`
	Locality       string              `json:"locality"`
	ContactNumber  string              `json:"contactNumber,omitempty"`
	Latitude       *float64            `json:"latitude,omitempty"`
	Longitude      *float64            `json:"longitude,omitempty"`
	Status         string              `json:"status"`
	Tag            string              `json:"tag"`
	MappedTo       string              `json:"mappedTo,omitempty"`
	Remarks        string              `json:"remarks,omitempty"`
	Metadata       remarks.Annotations `json:"metadata"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// Lead is a prospect confirmed by a qualifying call or visit. ProspectID is
// nil for leads added directly.
type Lead struct {
	ID         uuid.UUID           `json:"id"`
	ClientName string              `json:"clientName"`
	Pincode    string              `json:"pincode"`
	Status     string              `json:"status"`
	ProspectID *uuid.UUID          `json:"prospectId,omitempty"`
	CallCount  int                 `json:"callCount"`
	VisitCount int                 `json:"visitCount"`
	Remarks    string              `json:"remarks,omitempty"`
	Metadata   remarks.Annotations `json:"metadata"`
	CreatedBy  *uuid.UUID          `json:"createdBy,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// SampleOrder is a product sample booked for a lead.
type SampleOrder struct {
	ID               uuid.UUID           `json:"id"`
	LeadID           uuid.UUID           `json:"leadId"`
	SKU              string              `json:"sku"`
	Status           string              `json:"status"`
	Remarks          string              `json:"remarks,omitempty"`
	Metadata         remarks.Annotations `json:"metadata"`
	DeliveryDate     *time.Time          `json:"deliveryDate,omitempty"`
	DeliveryPhotoKey string              `json:"deliveryPhotoKey,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Agreement holds the commercial terms sent after a delivered sample.
type Agreement struct {
	ID              uuid.UUID           `json:"id"`
	SampleOrderID   uuid.UUID           `json:"sampleOrderId"`
	Status          string              `json:"status"`
	EsignStatus     string              `json:"esignStatus"`
	QualityFeedback *bool               `json:"qualityFeedback,omitempty"`
	Remarks         string              `json:"remarks,omitempty"`
	Metadata        remarks.Annotations `json:"metadata"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
