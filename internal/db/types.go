package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucas/course-foundry/internal/types"
)

// CourseRecord is a stored course with its full document reassembled.
type CourseRecord struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	CreatedAt time.Time            `json:"created_at"`
	Document  types.CourseDocument `json:"document"`
}

// CourseSummary is a lightweight view of a course for listing.
type CourseSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProgressRecord tracks one learner's completion state for one lesson.
type ProgressRecord struct {
	LessonID  uuid.UUID `json:"lesson_id"`
	Completed bool      `json:"completed"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}
