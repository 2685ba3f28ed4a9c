package dto

type TestMealReminderRequest struct {
	PatientEmail string `json:"patientEmail" validate:"required,email"`
	PatientName  string `json:"patientName,omitempty"`
	MealType     string `json:"mealType,omitempty"`
}

type DispatchRequest struct {
	MealType string `json:"mealType" validate:"required"`
}

type DispatchReport struct {
	MealType   string `json:"mealType"`
	Candidates int    `json:"candidates"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}
