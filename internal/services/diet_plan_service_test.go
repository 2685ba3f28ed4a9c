package services

import (
	"context"
	"testing"

	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
	"github.com/siddhasavor/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaults(t *testing.T) {
	svc := NewDietPlanService(testutil.NewDB(t))
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(models.Diagnoses)*len(models.MealTypes)), n)

	// Seeding again keeps doctor edits.
	_, err = svc.Upsert(ctx, &dto.DietPlanRequest{Diagnosis: "PCOS", MealType: "lunch", Items: []string{"Custom"}})
	require.NoError(t, err)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	plan, err := svc.Get(ctx, models.DiagnosisPCOS, models.MealLunch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Custom"}, []string(plan.Items))
}

func TestUpsertReplacesPlan(t *testing.T) {
	svc := NewDietPlanService(testutil.NewDB(t))
	ctx := context.Background()

	first, err := svc.Upsert(ctx, &dto.DietPlanRequest{Diagnosis: "diabetes", MealType: "Breakfast", Items: []string{"Ragi kanji", " "}, Notes: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ragi kanji"}, []string(first.Items))

	second, err := svc.Upsert(ctx, &dto.DietPlanRequest{Diagnosis: "DIABETES", MealType: "breakfast", Items: []string{"Oats"}, Notes: "b"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"Oats"}, []string(second.Items))
	assert.Equal(t, "b", second.Notes)

	plans, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestUpsertValidation(t *testing.T) {
	svc := NewDietPlanService(testutil.NewDB(t))
	ctx := context.Background()

	_, err := svc.Upsert(ctx, &dto.DietPlanRequest{Diagnosis: "FLU", MealType: "lunch", Items: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidDiagnosis)

	_, err = svc.Upsert(ctx, &dto.DietPlanRequest{Diagnosis: "PCOS", MealType: "brunch", Items: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidMealType)
}

func TestListAndForMeal(t *testing.T) {
	svc := NewDietPlanService(testutil.NewDB(t))
	ctx := context.Background()
	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	pcos, err := svc.List(ctx, "pcos")
	require.NoError(t, err)
	assert.Len(t, pcos, 3)

	_, err = svc.List(ctx, "FLU")
	assert.ErrorIs(t, err, ErrInvalidDiagnosis)

	dinner, err := svc.ForMeal(ctx, models.MealDinner)
	require.NoError(t, err)
	assert.Len(t, dinner, len(models.Diagnoses))
	assert.NotEmpty(t, dinner[models.DiagnosisObesity].Items)

	_, err = svc.Get(ctx, models.DiagnosisPCOS, "brunch")
	assert.ErrorIs(t, err, ErrDietPlanNotFound)
}
