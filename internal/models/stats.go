package models

type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type AdminStats struct {
	UsersByRole           map[string]int64 `json:"users_by_role"`
	TotalUsers            int64            `json:"total_users"`
	TotalElders           int64            `json:"total_elders"`
	AppointmentsByStatus  map[string]int64 `json:"appointments_by_status"`
	PrescriptionsByStatus map[string]int64 `json:"prescriptions_by_status"`
	ActiveEmergencies     int64            `json:"active_emergencies"`
	ActiveSubscriptions   int64            `json:"active_subscriptions"`
	RevenueThisMonthCents int64            `json:"revenue_this_month_cents"`
	NewUsersByMonth       []MonthlyCount   `json:"new_users_by_month"`
	GeneratedAt           string           `json:"generated_at"`
}

type MedicineUsage struct {
	MedicineName string `json:"medicine_name"`
	Quantity     int64  `json:"quantity"`
}

type PharmacistAnalytics struct {
	PrescriptionsByMonth []MonthlyCount  `json:"prescriptions_by_month"`
	TopMedicines         []MedicineUsage `json:"top_medicines"`
	LowStockCount        int64           `json:"low_stock_count"`
	ExpiringSoonCount    int64           `json:"expiring_soon_count"`
	TotalStockValueCents int64           `json:"total_stock_value_cents"`
}
