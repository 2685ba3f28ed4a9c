package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidMealType  = errors.New("meal type must be breakfast, lunch or dinner")
	ErrDietPlanNotFound = errors.New("diet plan not found")
)

type DietPlanService struct {
	db *gorm.DB
}

func NewDietPlanService(db *gorm.DB) *DietPlanService {
	return &DietPlanService{db: db}
}

// List returns plans ordered by diagnosis then slot. An empty diagnosis
// returns all of them.
func (s *DietPlanService) List(ctx context.Context, diagnosis string) ([]models.DietPlan, error) {
	query := s.db.WithContext(ctx)
	if diagnosis != "" {
		d := models.Diagnosis(strings.ToUpper(strings.TrimSpace(diagnosis)))
		if !d.Valid() {
			return nil, ErrInvalidDiagnosis
		}
		query = query.Where("diagnosis = ?", d)
	}

	var plans []models.DietPlan
	if err := query.Order("diagnosis ASC, meal_type ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list diet plans: %w", err)
	}
	return plans, nil
}

// ForMeal returns every plan for one slot keyed by diagnosis.
func (s *DietPlanService) ForMeal(ctx context.Context, mealType models.MealType) (map[models.Diagnosis]models.DietPlan, error) {
	var plans []models.DietPlan
	if err := s.db.WithContext(ctx).Where("meal_type = ?", mealType).Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to load diet plans: %w", err)
	}
	byDiagnosis := make(map[models.Diagnosis]models.DietPlan, len(plans))
	for _, p := range plans {
		byDiagnosis[p.Diagnosis] = p
	}
	return byDiagnosis, nil
}

func (s *DietPlanService) Get(ctx context.Context, diagnosis models.Diagnosis, mealType models.MealType) (*models.DietPlan, error) {
	var plan models.DietPlan
	err := s.db.WithContext(ctx).Where("diagnosis = ? AND meal_type = ?", diagnosis, mealType).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDietPlanNotFound
		}
		return nil, fmt.Errorf("failed to load diet plan: %w", err)
	}
	return &plan, nil
}

// Upsert replaces the plan for (diagnosis, mealType).
func (s *DietPlanService) Upsert(ctx context.Context, req *dto.DietPlanRequest) (*models.DietPlan, error) {
	diagnosis := models.Diagnosis(strings.ToUpper(strings.TrimSpace(req.Diagnosis)))
	if !diagnosis.Valid() {
		return nil, ErrInvalidDiagnosis
	}
	mealType, ok := models.ParseMealType(req.MealType)
	if !ok {
		return nil, ErrInvalidMealType
	}

	items := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	plan := models.DietPlan{
		Diagnosis: diagnosis,
		MealType:  mealType,
		Items:     datatypes.NewJSONSlice(items),
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := s.upsert(ctx, s.db, &plan); err != nil {
		return nil, err
	}
	return s.Get(ctx, diagnosis, mealType)
}

func (s *DietPlanService) upsert(ctx context.Context, db *gorm.DB, plan *models.DietPlan) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "diagnosis"}, {Name: "meal_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "notes", "updated_at"}),
	}).Create(plan).Error
	if err != nil {
		return fmt.Errorf("failed to save diet plan: %w", err)
	}
	return nil
}

// SeedDefaults inserts the default plans that are missing. Existing plans
// are left alone so doctor edits survive restarts.
func (s *DietPlanService) SeedDefaults(ctx context.Context) (int64, error) {
	plans := make([]models.DietPlan, 0, len(defaultDietPlans)*len(models.MealTypes))
	for _, diagnosis := range models.Diagnoses {
		for _, mealType := range models.MealTypes {
			d := defaultDietPlans[diagnosis][mealType]
			plans = append(plans, models.DietPlan{
				Diagnosis: diagnosis,
				MealType:  mealType,
				Items:     datatypes.NewJSONSlice(d.items),
				Notes:     d.notes,
			})
		}
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "diagnosis"}, {Name: "meal_type"}},
		DoNothing: true,
	}).Create(&plans)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed diet plans: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		slog.InfoContext(ctx, "diet plans seeded", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

type defaultPlan struct {
	items []string
	notes string
}

var defaultDietPlans = map[models.Diagnosis]map[models.MealType]defaultPlan{
	models.DiagnosisDiabetes: {
		models.MealBreakfast: {[]string{"Ragi kanji", "Steamed vegetables", "Fenugreek water"}, "Avoid white rice and sugar."},
		models.MealLunch:     {[]string{"Kambu (pearl millet) rice", "Bitter gourd poriyal", "Drumstick sambar", "Buttermilk"}, "Keep portions moderate."},
		models.MealDinner:    {[]string{"Wheat rava upma", "Green gram sundal"}, "Finish dinner before 8 pm."},
	},
	models.DiagnosisHypertension: {
		models.MealBreakfast: {[]string{"Oats kanji", "Banana", "Coriander water"}, "Keep salt low."},
		models.MealLunch:     {[]string{"Brown rice", "Greens kootu", "Ash gourd curry", "Buttermilk"}, "Avoid pickles and papad."},
		models.MealDinner:    {[]string{"Idli", "Bottle gourd chutney"}, "Light meal, low salt."},
	},
	models.DiagnosisArthritis: {
		models.MealBreakfast: {[]string{"Dry ginger coffee", "Samai (little millet) pongal"}, "Avoid cold foods in the morning."},
		models.MealLunch:     {[]string{"Red rice", "Horse gram rasam", "Moringa leaf poriyal"}, "Avoid potato and brinjal."},
		models.MealDinner:    {[]string{"Wheat dosa", "Garlic milk"}, "Take dinner warm."},
	},
	models.DiagnosisGastritis: {
		models.MealBreakfast: {[]string{"Rice kanji", "Tender coconut water"}, "Do not skip breakfast."},
		models.MealLunch:     {[]string{"Curd rice", "Ash gourd kootu", "Pomegranate"}, "Avoid spicy and fried food."},
		models.MealDinner:    {[]string{"Idiyappam", "Coconut milk"}, "Eat at least two hours before sleep."},
	},
	models.DiagnosisPCOS: {
		models.MealBreakfast: {[]string{"Ulundhu (black gram) kali", "Cinnamon water"}, "Avoid refined flour."},
		models.MealLunch:     {[]string{"Varagu (kodo millet) rice", "Mixed vegetable sambar", "Sprouts salad"}, "Include greens daily."},
		models.MealDinner:    {[]string{"Millet dosa", "Mint chutney"}, "Avoid sweets after sunset."},
	},
	models.DiagnosisObesity: {
		models.MealBreakfast: {[]string{"Warm water with honey and lemon", "Vegetable upma"}, "No fried snacks."},
		models.MealLunch:     {[]string{"Thinai (foxtail millet) rice", "Cabbage poriyal", "Rasam"}, "Half the plate should be vegetables."},
		models.MealDinner:    {[]string{"Vegetable soup", "Chapati"}, "Keep dinner small."},
	},
}
