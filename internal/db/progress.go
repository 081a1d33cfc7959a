package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertProgress records a learner's completion state and quiz score for one
// lesson.
func (db *DB) UpsertProgress(ctx context.Context, userID, courseID, lessonID uuid.UUID, completed bool, score float64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO student_progress (user_id, course_id, lesson_id, completed, score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, course_id, lesson_id)
		 DO UPDATE SET completed = $4, score = $5, updated_at = NOW()`,
		userID, courseID, lessonID, completed, score,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// ListProgress returns a learner's progress records for one course.
func (db *DB) ListProgress(ctx context.Context, userID, courseID uuid.UUID) ([]ProgressRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT lesson_id, completed, score, updated_at
		 FROM student_progress
		 WHERE user_id = $1 AND course_id = $2
		 ORDER BY updated_at`,
		userID, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	records := []ProgressRecord{}
	for rows.Next() {
		var r ProgressRecord
		if err := rows.Scan(&r.LessonID, &r.Completed, &r.Score, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
