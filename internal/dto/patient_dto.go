package dto

type PatientRegisterRequest struct {
	Token     string `json:"token" validate:"required"`
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Diagnosis string `json:"diagnosis" validate:"required"`
}

// PatientActionRequest backs both approve and reject. Action and Reason are
// checked by the service so the rules live next to the transition.
type PatientActionRequest struct {
	PatientID string `json:"patientId" validate:"required,uuid"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
}

type DietPlanRequest struct {
	Diagnosis string   `json:"diagnosis" validate:"required"`
	MealType  string   `json:"mealType" validate:"required"`
	Items     []string `json:"items" validate:"required,min=1,dive,required"`
	Notes     string   `json:"notes" validate:"max=2000"`
}
