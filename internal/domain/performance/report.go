package performance

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"perfreview/internal/domain/auth"
)

type ReportSummary struct {
	FeedbackCount      int            `json:"feedback_count"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

func buildReportSummary(feedback []FeedbackView) ReportSummary {
	summary := ReportSummary{RatingDistribution: map[string]int{}}
	for rating := MinRating; rating <= MaxRating; rating++ {
		summary.RatingDistribution[strconv.Itoa(rating)] = 0
	}
	total := 0
	for _, f := range feedback {
		summary.RatingDistribution[strconv.Itoa(f.Answers.OverallRating)]++
		total += f.Answers.OverallRating
	}
	summary.FeedbackCount = len(feedback)
	if len(feedback) > 0 {
		summary.AverageRating = float64(total) / float64(len(feedback))
	}
	return summary
}

// ReviewReport renders a review's collected feedback as a PDF.
func (s *Service) ReviewReport(ctx context.Context, actor auth.UserContext, reviewID int64) ([]byte, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, orNotFound(err, "review not found")
	}
	feedback, err := s.store.ListFeedbackByReview(ctx, reviewID)
	if err != nil {
		return nil, internal(err)
	}
	out, err := renderReport(review, feedback, buildReportSummary(feedback))
	return out, internal(err)
}

func renderReport(review ReviewView, feedback []FeedbackView, summary ReportSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Performance review %d", review.ID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Performance Review Summary")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Employee: %s %s (%s)", review.EmployeeFirstName, review.EmployeeLastName, review.EmployeeEmail)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Period: %s", review.ReviewPeriod)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", review.Status))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Feedback received: %d of %d assignment(s)", summary.FeedbackCount, review.AssignmentCount))
	pdf.Ln(7)
	if summary.FeedbackCount > 0 {
		pdf.Cell(0, 8, fmt.Sprintf("Average rating: %.2f / %d", summary.AverageRating, MaxRating))
		pdf.Ln(7)
		for rating := MaxRating; rating >= MinRating; rating-- {
			pdf.Cell(0, 6, fmt.Sprintf("  %d: %d", rating, summary.RatingDistribution[strconv.Itoa(rating)]))
			pdf.Ln(6)
		}
	}

	for _, f := range feedback {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, tr(fmt.Sprintf("%s %s - rating %d", f.ReviewerFirstName, f.ReviewerLastName, f.Answers.OverallRating)))
		pdf.Ln(9)
		section := func(title, body string) {
			if body == "" {
				return
			}
			pdf.SetFont("Helvetica", "B", 11)
			pdf.Cell(0, 6, title)
			pdf.Ln(6)
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 5, tr(body), "", "L", false)
			pdf.Ln(2)
		}
		section("Strengths", f.Answers.Strengths)
		section("Areas for improvement", f.Answers.AreasForImprovement)
		section("Achievements", f.Answers.Achievements)
		section("Suggestions", f.Answers.Suggestions)
		section("Additional comments", f.Answers.AdditionalComments)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
