package performance

import (
	"errors"
	"strings"
	"testing"

	"perfreview/internal/domain/apperr"
)

func validationFields(t *testing.T, err error) map[string]bool {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	out := map[string]bool{}
	for _, issue := range appErr.Fields {
		out[issue.Field] = true
	}
	return out
}

func TestAnswersValidate(t *testing.T) {
	good := Answers{Strengths: strings.Repeat("x", 10), AreasForImprovement: strings.Repeat("y", 10), OverallRating: 4}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid answers, got %v", err)
	}

	bad := Answers{Strengths: "   short   ", AreasForImprovement: "  " + strings.Repeat("y", 9) + "   ", OverallRating: 6}
	fields := validationFields(t, bad.Validate())
	for _, field := range []string{"answers.strengths", "answers.areas_for_improvement", "answers.overall_rating"} {
		if !fields[field] {
			t.Fatalf("expected %s in %v", field, fields)
		}
	}

	missing := validationFields(t, Answers{}.Validate())
	if len(missing) != 3 {
		t.Fatalf("expected every required field reported, got %v", missing)
	}
}

func TestParseAnswers(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		rating  int
		wantErr string
	}{
		{name: "number rating", raw: `{"strengths":" consistent delivery ","areas_for_improvement":"more delegation","overall_rating":4}`, rating: 4},
		{name: "string rating", raw: `{"strengths":"steady under pressure","areas_for_improvement":"written estimates","overall_rating":"5"}`, rating: 5},
		{name: "missing rating", raw: `{"strengths":"steady under pressure","areas_for_improvement":"written estimates"}`, wantErr: "answers.overall_rating"},
		{name: "short text", raw: `{"strengths":"a","areas_for_improvement":"written estimates","overall_rating":2}`, wantErr: "answers.strengths"},
		{name: "fractional rating", raw: `{"overall_rating":3.5}`, wantErr: "answers.overall_rating"},
		{name: "word rating", raw: `{"overall_rating":"great"}`, wantErr: "answers.overall_rating"},
		{name: "numeric strengths", raw: `{"strengths":12}`, wantErr: "answers.strengths"},
		{name: "array", raw: `["x"]`, wantErr: "answers"},
		{name: "null", raw: `null`, wantErr: "answers"},
		{name: "empty", raw: ``, wantErr: "answers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAnswers([]byte(tc.raw))
			if tc.wantErr != "" {
				if !validationFields(t, err)[tc.wantErr] {
					t.Fatalf("expected issue on %s, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.OverallRating != tc.rating {
				t.Fatalf("expected rating %d, got %d", tc.rating, got.OverallRating)
			}
		})
	}

	parsed, err := ParseAnswers([]byte(`{"strengths":"  consistent delivery  ","areas_for_improvement":"written estimates","overall_rating":1,"suggestions":" pair more "}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Strengths != "consistent delivery" || parsed.Suggestions != "pair more" {
		t.Fatalf("expected trimmed text, got %+v", parsed)
	}
}

func TestParseAnswersReportsEveryField(t *testing.T) {
	_, err := ParseAnswers([]byte(`{"strengths":5,"suggestions":["x"]}`))
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := map[string]string{}
	for _, issue := range appErr.Fields {
		if _, dup := got[issue.Field]; dup {
			t.Fatalf("field %s reported twice: %v", issue.Field, appErr.Fields)
		}
		got[issue.Field] = issue.Reason
	}
	want := map[string]string{
		"answers.strengths":             "must be a string",
		"answers.suggestions":           "must be a string",
		"answers.areas_for_improvement": "is required",
		"answers.overall_rating":        "must be an integer between 1 and 5",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for field, reason := range want {
		if got[field] != reason {
			t.Fatalf("%s: expected %q, got %q", field, reason, got[field])
		}
	}
}
