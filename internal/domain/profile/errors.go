package profile

import "errors"

// Domain errors for profile validation

var (
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = errors.New("name must not exceed 100 characters")
	ErrAgeOutOfRange      = errors.New("age must be between 12 and 100")
	ErrHeightOutOfRange   = errors.New("height must be between 100 and 220 cm")
	ErrWeightOutOfRange   = errors.New("weight must be between 30 and 150 kg")
	ErrInvalidGender      = errors.New("gender must be one of Male, Female, Other")
	ErrInvalidDietType    = errors.New("diet type must be one of Veg, Non-Veg, Vegan")
	ErrInvalidCuisine     = errors.New("cuisine must be one of Indian, Chinese, American, Italian, Mexican, Mediterranean")
	ErrInvalidActivity    = errors.New("activity level must be one of Low, Moderate, High")
	ErrInvalidGoal        = errors.New("goal must be one of Weight Loss, Muscle Gain, Maintenance")
	ErrInvalidBudget      = errors.New("budget must be one of Low, Medium, High")
	ErrAllergiesTooLong   = errors.New("allergies must not exceed 500 characters")
	ErrCustomFoodsTooLong = errors.New("custom foods must not exceed 500 characters")
	ErrTooManyCustomFoods = errors.New("at most 10 custom foods can be looked up")
)
