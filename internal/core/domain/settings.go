package domain

import "time"

// Settings is the admin-editable configuration document. Every section is
// optional; a nil section means "not configured".
type Settings struct {
	Site      *SiteSettings     `json:"site,omitempty" bson:"site,omitempty"`
	Storage   *StorageSettings  `json:"storage,omitempty" bson:"storage,omitempty"`
	Payment   *PaymentSettings  `json:"payment,omitempty" bson:"payment,omitempty"`
	Metadata  *MetadataSettings `json:"metadata,omitempty" bson:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

type SiteSettings struct {
	Name            string `json:"name" bson:"name" validate:"required,max=80"`
	MaintenanceMode bool   `json:"maintenance_mode" bson:"maintenance_mode"`
	SupportEmail    string `json:"support_email,omitempty" bson:"support_email,omitempty" validate:"omitempty,email"`
}

type StorageSettings struct {
	Provider      string `json:"provider" bson:"provider" validate:"required,oneof=s3 local"`
	Bucket        string `json:"bucket,omitempty" bson:"bucket,omitempty" validate:"required_if=Provider s3"`
	Region        string `json:"region,omitempty" bson:"region,omitempty"`
	PublicBaseURL string `json:"public_base_url,omitempty" bson:"public_base_url,omitempty" validate:"omitempty,url"`
	MaxUploadMB   int    `json:"max_upload_mb" bson:"max_upload_mb" validate:"gte=0,lte=20480"`
}

type PaymentSettings struct {
	Currency string `json:"currency" bson:"currency" validate:"required,len=3"`
	Plans    []Plan `json:"plans" bson:"plans" validate:"dive"`
}

// Plan is a purchasable subscription tier.
type Plan struct {
	ID         string   `json:"id" bson:"id" validate:"required"`
	Name       string   `json:"name" bson:"name" validate:"required"`
	PriceCents int64    `json:"price_cents" bson:"price_cents" validate:"gte=0"`
	Interval   string   `json:"interval" bson:"interval" validate:"required,oneof=month year"`
	Features   []string `json:"features,omitempty" bson:"features,omitempty"`
}

type MetadataSettings struct {
	Language     string `json:"language" bson:"language" validate:"omitempty,bcp47_language_tag"`
	IncludeAdult bool   `json:"include_adult" bson:"include_adult"`
	Region       string `json:"region,omitempty" bson:"region,omitempty" validate:"omitempty,len=2"`
}

// Merge overlays the non-nil sections of patch onto s and returns the result.
// Present sections replace the stored section whole.
func (s Settings) Merge(patch Settings) Settings {
	out := s
	if patch.Site != nil {
		out.Site = patch.Site
	}
	if patch.Storage != nil {
		out.Storage = patch.Storage
	}
	if patch.Payment != nil {
		out.Payment = patch.Payment
	}
	if patch.Metadata != nil {
		out.Metadata = patch.Metadata
	}
	return out
}
