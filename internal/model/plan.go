package model

// Plan is a subscription tier. Plans are shared reference data; deactivating
// one hides it from new requests without touching existing subscriptions.
type Plan struct {
	Base
	Code            string  `db:"code" json:"code"`
	NameEn          string  `db:"name_en" json:"name_en"`
	NameAr          string  `db:"name_ar" json:"name_ar"`
	Price           float64 `db:"price" json:"price"`
	MaxAppointments int     `db:"max_appointments" json:"max_appointments"`
	MaxStorageMB    int     `db:"max_storage_mb" json:"max_storage_mb"`
	Priority        int     `db:"priority" json:"priority"`
	Active          bool    `db:"active" json:"active"`
}

// MaxStorageBytes converts the plan's storage quota to bytes.
func (p *Plan) MaxStorageBytes() int64 {
	return int64(p.MaxStorageMB) * 1024 * 1024
}

type CreatePlanRequest struct {
	Code            string  `json:"code" binding:"required,max=50"`
	NameEn          string  `json:"name_en" binding:"required"`
	NameAr          string  `json:"name_ar" binding:"required"`
	Price           float64 `json:"price" binding:"gte=0"`
	MaxAppointments int     `json:"max_appointments" binding:"gte=0"`
	MaxStorageMB    int     `json:"max_storage_mb" binding:"gte=0"`
	Priority        int     `json:"priority"`
	Active          *bool   `json:"active"`
}

type UpdatePlanRequest struct {
	NameEn          *string  `json:"name_en"`
	NameAr          *string  `json:"name_ar"`
	Price           *float64 `json:"price" binding:"omitempty,gte=0"`
	MaxAppointments *int     `json:"max_appointments" binding:"omitempty,gte=0"`
	MaxStorageMB    *int     `json:"max_storage_mb" binding:"omitempty,gte=0"`
	Priority        *int     `json:"priority"`
}
