package performance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"perfreview/internal/domain/apperr"
)

// Normalize trims every free-text answer.
func (a Answers) Normalize() Answers {
	a.Strengths = strings.TrimSpace(a.Strengths)
	a.AreasForImprovement = strings.TrimSpace(a.AreasForImprovement)
	a.Achievements = strings.TrimSpace(a.Achievements)
	a.Suggestions = strings.TrimSpace(a.Suggestions)
	a.AdditionalComments = strings.TrimSpace(a.AdditionalComments)
	return a
}

// Validate reports every rule the answer set breaks. Lengths are counted on
// trimmed text.
func (a Answers) Validate() error {
	var issues apperr.Issues
	a.check(&issues, nil)
	return issues.Err()
}

// check adds rule violations to issues. Fields listed in malformed already
// carry a type issue and are skipped.
func (a Answers) check(issues *apperr.Issues, malformed map[string]bool) {
	a = a.Normalize()
	minLength := func(field, value string) {
		if malformed[field] {
			return
		}
		if value == "" {
			issues.Add("answers."+field, "is required")
			return
		}
		if utf8.RuneCountInString(value) < MinAnswerLength {
			issues.Add("answers."+field, fmt.Sprintf("must be at least %d characters", MinAnswerLength))
		}
	}
	minLength("strengths", a.Strengths)
	minLength("areas_for_improvement", a.AreasForImprovement)
	if !malformed["overall_rating"] && (a.OverallRating < MinRating || a.OverallRating > MaxRating) {
		issues.Add("answers.overall_rating", ratingReason)
	}
}

var ratingReason = fmt.Sprintf("must be an integer between %d and %d", MinRating, MaxRating)

type rawAnswers struct {
	Strengths           json.RawMessage `json:"strengths"`
	AreasForImprovement json.RawMessage `json:"areas_for_improvement"`
	OverallRating       json.RawMessage `json:"overall_rating"`
	Achievements        json.RawMessage `json:"achievements"`
	Suggestions         json.RawMessage `json:"suggestions"`
	AdditionalComments  json.RawMessage `json:"additional_comments"`
}

// ParseAnswers decodes and validates a client payload. Text fields must be
// strings and the rating must be an integer, given either as a JSON number or
// a numeric string. A field with the wrong type gets a type issue while the
// others still get the required, length and range checks, so one error lists
// every bad field.
func ParseAnswers(raw json.RawMessage) (Answers, error) {
	var issues apperr.Issues
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		issues.Add("answers", "is required")
		return Answers{}, issues.Err()
	}
	if trimmed[0] != '{' {
		issues.Add("answers", "must be an object")
		return Answers{}, issues.Err()
	}
	var in rawAnswers
	if err := json.Unmarshal(trimmed, &in); err != nil {
		issues.Add("answers", "must be an object")
		return Answers{}, issues.Err()
	}

	var out Answers
	malformed := map[string]bool{}
	text := func(field string, value json.RawMessage, dst *string) {
		if len(value) == 0 || string(value) == "null" {
			return
		}
		if err := json.Unmarshal(value, dst); err != nil {
			issues.Add("answers."+field, "must be a string")
			malformed[field] = true
		}
	}
	text("strengths", in.Strengths, &out.Strengths)
	text("areas_for_improvement", in.AreasForImprovement, &out.AreasForImprovement)
	text("achievements", in.Achievements, &out.Achievements)
	text("suggestions", in.Suggestions, &out.Suggestions)
	text("additional_comments", in.AdditionalComments, &out.AdditionalComments)

	if len(in.OverallRating) > 0 && string(in.OverallRating) != "null" {
		rating, ok := parseRating(in.OverallRating)
		if !ok {
			issues.Add("answers.overall_rating", ratingReason)
			malformed["overall_rating"] = true
		}
		out.OverallRating = rating
	}

	out.check(&issues, malformed)
	if err := issues.Err(); err != nil {
		return Answers{}, err
	}
	return out.Normalize(), nil
}

func parseRating(value json.RawMessage) (int, bool) {
	var number float64
	if err := json.Unmarshal(value, &number); err == nil {
		if number != math.Trunc(number) {
			return 0, false
		}
		return int(number), true
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return 0, false
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return parsed, true
}
