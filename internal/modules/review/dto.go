package review

import "equiprent/internal/domain"

type SubmitReviewRequest struct {
	Rating  int32  `json:"rating" binding:"required" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type SubmitReviewResponse struct {
	Review        *domain.Review `json:"review"`
	AverageRating float64        `json:"average_rating"`
	TotalReviews  int32          `json:"total_reviews"`
}
