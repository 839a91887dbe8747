package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

const (
	fullNameMinLen = 2
	fullNameMaxLen = 80
	notesMaxLen    = 1000
)

const invalidUTF8 = "must be valid UTF-8 text"

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateBuyerInput checks every field of input and returns the normalized
// buyer, or all violations found. Status is left empty when absent so the
// caller can pick its own default.
func ValidateBuyerInput(input BuyerInput) (*entity.Buyer, []ValidationError) {
	var errors []ValidationError
	b := &entity.Buyer{Tags: []string{}}

	switch n := utf8.RuneCountInString(input.FullName); {
	case !utf8.ValidString(input.FullName):
		errors = append(errors, ValidationError{"fullName", invalidUTF8})
	case strings.TrimSpace(input.FullName) == "":
		errors = append(errors, ValidationError{"fullName", "is required"})
	case n < fullNameMinLen:
		errors = append(errors, ValidationError{"fullName", fmt.Sprintf("must have at least %d characters", fullNameMinLen)})
	case n > fullNameMaxLen:
		errors = append(errors, ValidationError{"fullName", fmt.Sprintf("must not exceed %d characters", fullNameMaxLen)})
	default:
		b.FullName = input.FullName
	}

	if input.Email != nil && *input.Email != "" {
		if !utf8.ValidString(*input.Email) {
			errors = append(errors, ValidationError{"email", invalidUTF8})
		} else if !isValidEmail(*input.Email) {
			errors = append(errors, ValidationError{"email", "is invalid"})
		} else {
			email := *input.Email
			b.Email = &email
		}
	}

	if input.Phone == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	} else if !utf8.ValidString(input.Phone) {
		errors = append(errors, ValidationError{"phone", invalidUTF8})
	} else if !phonePattern.MatchString(input.Phone) {
		errors = append(errors, ValidationError{"phone", "must be 10-15 digits"})
	} else {
		b.Phone = input.Phone
	}

	if err := checkEnum("city", input.City, entity.ValidCities); err != nil {
		errors = append(errors, *err)
	} else {
		b.City = entity.City(input.City)
	}

	propertyOK := false
	if err := checkEnum("propertyType", input.PropertyType, entity.ValidPropertyTypes); err != nil {
		errors = append(errors, *err)
	} else {
		b.PropertyType = entity.PropertyType(input.PropertyType)
		propertyOK = true
	}

	var bhk *entity.BHK
	if input.BHK != nil && *input.BHK != "" {
		if err := checkEnum("bhk", *input.BHK, entity.ValidBHKs); err != nil {
			errors = append(errors, *err)
		} else {
			v := entity.BHK(*input.BHK)
			bhk = &v
		}
	}
	if propertyOK {
		if b.PropertyType.IsResidential() {
			if input.BHK == nil || *input.BHK == "" {
				errors = append(errors, ValidationError{"bhk", "is required for APARTMENT or VILLA"})
			}
			b.BHK = bhk
		}
		// bhk carries no meaning for other property types and is dropped.
	}

	if err := checkEnum("purpose", input.Purpose, entity.ValidPurposes); err != nil {
		errors = append(errors, *err)
	} else {
		b.Purpose = entity.Purpose(input.Purpose)
	}

	budgetMin, err := parseBudget("budgetMin", input.BudgetMin)
	if err != nil {
		errors = append(errors, *err)
	}
	budgetMax, err := parseBudget("budgetMax", input.BudgetMax)
	if err != nil {
		errors = append(errors, *err)
	}
	if budgetMin != nil && budgetMax != nil && *budgetMax < *budgetMin {
		errors = append(errors, ValidationError{"budgetMax", "must be greater than or equal to budgetMin"})
	}
	b.BudgetMin, b.BudgetMax = budgetMin, budgetMax

	if err := checkEnum("timeline", input.Timeline, entity.ValidTimelines); err != nil {
		errors = append(errors, *err)
	} else {
		b.Timeline = entity.Timeline(input.Timeline)
	}

	if err := checkEnum("source", input.Source, entity.ValidSources); err != nil {
		errors = append(errors, *err)
	} else {
		b.Source = entity.Source(input.Source)
	}

	if input.Notes != nil {
		if !utf8.ValidString(*input.Notes) {
			errors = append(errors, ValidationError{"notes", invalidUTF8})
		} else if utf8.RuneCountInString(*input.Notes) > notesMaxLen {
			errors = append(errors, ValidationError{"notes", fmt.Sprintf("must not exceed %d characters", notesMaxLen)})
		} else {
			notes := *input.Notes
			b.Notes = &notes
		}
	}

	if input.Tags != nil {
		tagsOK := true
		for _, tag := range input.Tags {
			if !utf8.ValidString(tag) {
				tagsOK = false
			}
		}
		if tagsOK {
			b.Tags = append([]string{}, input.Tags...)
		} else {
			errors = append(errors, ValidationError{"tags", invalidUTF8})
		}
	}

	if input.Status != nil {
		if err := checkEnum("status", *input.Status, entity.ValidStatuses); err != nil {
			errors = append(errors, *err)
		} else {
			b.Status = entity.Status(*input.Status)
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return b, nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func checkEnum[T ~string](field, value string, valid []T) *ValidationError {
	if value == "" {
		return &ValidationError{field, "is required"}
	}
	for _, v := range valid {
		if string(v) == value {
			return nil
		}
	}
	opts := make([]string, len(valid))
	for i, v := range valid {
		opts[i] = string(v)
	}
	return &ValidationError{field, "must be one of " + strings.Join(opts, ", ")}
}

func parseBudget(field string, n *Budget) (*int64, *ValidationError) {
	if n == nil {
		return nil, nil
	}
	if n.Quoted {
		return nil, &ValidationError{field, "must be a number, not a string"}
	}
	v, err := n.Int64()
	if err != nil {
		return nil, &ValidationError{field, "must be an integer"}
	}
	if v < 0 {
		return nil, &ValidationError{field, "must be non-negative"}
	}
	return &v, nil
}
