// Package transport holds the pipeline request and response bodies.
package transport

import (
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"
)

// ListQuery filters list endpoints. Dates are YYYY-MM-DD and inclusive.
type ListQuery struct {
	Pincode string `form:"pincode" validate:"omitempty,pincode"`
	Status  string `form:"status" validate:"omitempty,max=40"`
	From    string `form:"from"`
	To      string `form:"to"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" validate:"omitempty,min=0"`
}

type CreateProspectRequest struct {
	RestaurantName string   `json:"restaurantName" validate:"required,min=1,max=200"`
	Pincode        string   `json:"pincode" validate:"required,pincode"`
	Locality       string   `json:"locality" validate:"max=200"`
	ContactNumber  string   `json:"contactNumber" validate:"max=30"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
	Remarks        string   `json:"remarks" validate:"max=2000"`
}

type AssignProspectRequest struct {
	MappedTo string `json:"mappedTo" validate:"required,email,max=254"`
}

type ConvertProspectRequest struct {
	ClientName string `json:"clientName" validate:"max=200"`
	Via        string `json:"via" validate:"omitempty,oneof=call visit"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// DropRequest drops any pipeline record.
type DropRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type CreateLeadRequest struct {
	ClientName string `json:"clientName" validate:"required,min=1,max=200"`
	Pincode    string `json:"pincode" validate:"required,pincode"`
	Remarks    string `json:"remarks" validate:"max=2000"`
}

type LogCallRequest struct {
	Notes      string     `json:"notes" validate:"max=2000"`
	FollowUpAt *time.Time `json:"followUpAt"`
}

// LogVisitRequest logs a visit on a lead, sample order or agreement.
type LogVisitRequest struct {
	Outcome   string     `json:"outcome" validate:"required,oneof=completed revisit drop"`
	RevisitAt *time.Time `json:"revisitAt" validate:"required_if=Outcome revisit"`
	Reason    string     `json:"reason" validate:"required_if=Outcome drop,max=500"`
	Notes     string     `json:"notes" validate:"max=2000"`
}

type BookSampleRequest struct {
	SKU   string `json:"sku" validate:"required,min=1,max=100"`
	Notes string `json:"notes" validate:"max=2000"`
}

type DeliverRequest struct {
	Latitude    *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,longitude"`
	PhotoKey    string     `json:"photoKey" validate:"max=500"`
	DeliveredAt *time.Time `json:"deliveredAt"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// PhotoUploadRequest asks for a presigned delivery photo upload.
type PhotoUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required,min=1,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// PhotoUploadResponse is the presigned upload target.
type PhotoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
	ExpiresAt int64  `json:"expiresAt"` // Unix timestamp
}

type PhotoDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	FileKey     string `json:"fileKey"`
	ExpiresAt   int64  `json:"expiresAt"`
}

type CreateAgreementRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type FeedbackRequest struct {
	Positive *bool  `json:"positive" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

type ProspectListResponse struct {
	Items []domain.Prospect `json:"items"`
}

type LeadListResponse struct {
	Items []domain.Lead `json:"items"`
}

type OrderListResponse struct {
	Items []domain.SampleOrder `json:"items"`
}

type AgreementListResponse struct {
	Items []domain.Agreement `json:"items"`
}
