// Package validation provides input validation for the rxmindr API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/interfaces"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Query validation: letters (accents included, drug names carry them),
	// numbers, spaces, and safe punctuation found in medication names
	// (hyphens, apostrophes, periods, slashes, plus)
	queryRegex = regexp.MustCompile(`^[\p{L}0-9\s\-\.\+'/]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// Validator limits
const (
	maxQueryLength          = 100
	maxQueryWords           = 6
	maxMedicationNameLength = 200
	maxDailyFrequency       = 24
	maxPillCount            = 10000
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() interfaces.InputValidator {
	return &InputValidatorImpl{}
}

// ValidateQuery checks that a search query is safe to process.
func (v *InputValidatorImpl) ValidateQuery(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if len(input) > maxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", maxQueryLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(input)
	if len(words) > maxQueryWords {
		return fmt.Errorf("query too complex: maximum %d words allowed", maxQueryWords)
	}

	// Check for potentially dangerous patterns using string matching (5-10x faster than regex)
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("query contains potentially dangerous content")
		}
	}

	if !queryRegex.MatchString(input) {
		return fmt.Errorf("query contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, slashes, and plus sign are allowed")
	}

	// Additional check for repeated characters (potential DoS)
	if hasExcessiveRepetition(input) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// ValidateRecord checks that a dose-history record is internally consistent.
func (v *InputValidatorImpl) ValidateRecord(r *entities.MedicationRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	if r.PrescriptionID == "" {
		return fmt.Errorf("record missing prescription ID")
	}

	if r.Date.IsZero() {
		return fmt.Errorf("record missing date")
	}

	if r.DosesTaken < 0 {
		return fmt.Errorf("doses taken cannot be negative: %d", r.DosesTaken)
	}

	if r.DosesExpected < 0 {
		return fmt.Errorf("doses expected cannot be negative: %d", r.DosesExpected)
	}

	return nil
}

// ValidatePrescription checks that a prescription has a usable name,
// frequency, and pill counts before it is persisted.
func (v *InputValidatorImpl) ValidatePrescription(p *entities.Prescription) error {
	if p == nil {
		return fmt.Errorf("prescription is nil")
	}

	name := strings.TrimSpace(p.MedicationName)
	if name == "" {
		return fmt.Errorf("medication name cannot be empty")
	}

	if len(name) > maxMedicationNameLength {
		return fmt.Errorf("medication name too long: %d characters", len(name))
	}

	lowerName := strings.ToLower(name)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerName, pattern) {
			return fmt.Errorf("medication name contains potentially dangerous content")
		}
	}

	if p.DailyFrequency < 1 {
		return fmt.Errorf("daily frequency must be at least 1: %d", p.DailyFrequency)
	}

	if p.DailyFrequency > maxDailyFrequency {
		return fmt.Errorf("daily frequency too high: %d", p.DailyFrequency)
	}

	if p.TotalPills != nil {
		if *p.TotalPills < 0 {
			return fmt.Errorf("total pills cannot be negative: %d", *p.TotalPills)
		}
		if *p.TotalPills > maxPillCount {
			return fmt.Errorf("total pills too high: %d", *p.TotalPills)
		}
	}

	if p.PillsRemaining != nil {
		if *p.PillsRemaining < 0 {
			return fmt.Errorf("pills remaining cannot be negative: %d", *p.PillsRemaining)
		}
		if p.TotalPills != nil && *p.PillsRemaining > *p.TotalPills {
			return fmt.Errorf("pills remaining (%d) cannot exceed total pills (%d)",
				*p.PillsRemaining, *p.TotalPills)
		}
	}

	return nil
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func hasExcessiveRepetition(input string) bool {
	// Same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
