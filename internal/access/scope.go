package access

import "gorm.io/gorm"

// ForDoctor returns a GORM scope that filters by doctor_uid. An empty uid
// leaves the query unfiltered.
func ForDoctor(doctorUID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if doctorUID == "" {
			return db
		}
		return db.Where("doctor_uid = ?", doctorUID)
	}
}
