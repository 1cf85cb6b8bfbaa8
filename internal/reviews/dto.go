package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// CreateReviewRequest is the payload for both product and vendor reviews.
type CreateReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// ReplyRequest is the vendor's reply payload.
type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,min=10,max=1000"`
}

// ReviewDTO is a review as returned to callers.
type ReviewDTO struct {
	ID           uuid.UUID          `json:"id"`
	TargetType   enums.ReviewTarget `json:"target_type"`
	TargetID     uuid.UUID          `json:"target_id"`
	Rating       int                `json:"rating"`
	Comment      *string            `json:"comment,omitempty"`
	ReviewerName string             `json:"reviewer_name"`
	ProductName  *string            `json:"product_name,omitempty"`
	VendorReply  *string            `json:"vendor_reply,omitempty"`
	RepliedAt    *time.Time         `json:"replied_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ReviewListResult pairs a page of reviews with pagination metadata.
type ReviewListResult struct {
	Reviews []ReviewDTO     `json:"reviews"`
	Page    pagination.Page `json:"pagination"`
}

func newReviewDTO(row reviewRow) ReviewDTO {
	return ReviewDTO{
		ID:           row.ID,
		TargetType:   row.TargetType,
		TargetID:     row.TargetID,
		Rating:       row.Rating,
		Comment:      row.Comment,
		ReviewerName: row.ReviewerName,
		ProductName:  row.ProductName,
		VendorReply:  row.VendorReply,
		RepliedAt:    row.RepliedAt,
		CreatedAt:    row.CreatedAt,
	}
}

func newReviewListResult(rows []reviewRow, params pagination.Params, total int64) *ReviewListResult {
	result := &ReviewListResult{
		Reviews: make([]ReviewDTO, 0, len(rows)),
		Page:    pagination.NewPage(params, total),
	}
	for _, row := range rows {
		result.Reviews = append(result.Reviews, newReviewDTO(row))
	}
	return result
}
