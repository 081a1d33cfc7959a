package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lucas/course-foundry/internal/types"
)

// ErrNotFound is returned when a course does not exist or is owned by a
// different user.
var ErrNotFound = errors.New("course not found")

// SaveCourse stores an assembled course for a user. The whole document is
// written in one transaction; module and lesson rows carry zero-based
// positions so reads reproduce generation order exactly.
func (db *DB) SaveCourse(ctx context.Context, userID uuid.UUID, course *types.CourseDocument) (uuid.UUID, error) {
	personaJSON, err := json.Marshal(course.Persona)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal persona: %w", err)
	}
	projectJSON, err := json.Marshal(course.Project)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	glossaryJSON, err := json.Marshal(course.Glossary)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal glossary: %w", err)
	}
	assessmentJSON, err := json.Marshal(course.FinalAssessment)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal final assessment: %w", err)
	}
	usageJSON, err := json.Marshal(course.UsageReport)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal usage report: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			_ = rErr
		}
	}()

	var courseID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO courses (user_id, title, description, persona, project, glossary, final_assessment, usage_report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		userID, course.Title, course.Description,
		personaJSON, projectJSON, glossaryJSON, assessmentJSON, usageJSON,
	).Scan(&courseID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert course: %w", err)
	}

	for mi, module := range course.Modules {
		var moduleID uuid.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO modules (course_id, title, position)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			courseID, module.Title, mi,
		).Scan(&moduleID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert module %d: %w", mi, err)
		}

		for li, lesson := range module.Lessons {
			contentJSON, err := json.Marshal(lesson.LessonContent)
			if err != nil {
				return uuid.Nil, fmt.Errorf("failed to marshal lesson %d.%d: %w", mi, li, err)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO lessons (module_id, title, content, position)
				 VALUES ($1, $2, $3, $4)`,
				moduleID, lesson.Title, contentJSON, li,
			)
			if err != nil {
				return uuid.Nil, fmt.Errorf("failed to insert lesson %d.%d: %w", mi, li, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return courseID, nil
}

// GetCourse reassembles a stored course for its owner. Returns nil when the
// course does not exist or belongs to another user.
func (db *DB) GetCourse(ctx context.Context, courseID, userID uuid.UUID) (*CourseRecord, error) {
	record := CourseRecord{ID: courseID, UserID: userID}
	var personaJSON, projectJSON, glossaryJSON, assessmentJSON, usageJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT title, description, persona, project, glossary, final_assessment, usage_report, created_at
		 FROM courses WHERE id = $1 AND user_id = $2`,
		courseID, userID,
	).Scan(&record.Document.Title, &record.Document.Description,
		&personaJSON, &projectJSON, &glossaryJSON, &assessmentJSON, &usageJSON,
		&record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := json.Unmarshal(personaJSON, &record.Document.Persona); err != nil {
		return nil, fmt.Errorf("failed to decode persona: %w", err)
	}
	if err := json.Unmarshal(projectJSON, &record.Document.Project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	if err := json.Unmarshal(glossaryJSON, &record.Document.Glossary); err != nil {
		return nil, fmt.Errorf("failed to decode glossary: %w", err)
	}
	if err := json.Unmarshal(assessmentJSON, &record.Document.FinalAssessment); err != nil {
		return nil, fmt.Errorf("failed to decode final assessment: %w", err)
	}
	if err := json.Unmarshal(usageJSON, &record.Document.UsageReport); err != nil {
		return nil, fmt.Errorf("failed to decode usage report: %w", err)
	}

	modules, err := db.loadModules(ctx, courseID)
	if err != nil {
		return nil, err
	}
	record.Document.Modules = modules

	return &record, nil
}

// loadModules reads the module/lesson tree ordered by stored position.
func (db *DB) loadModules(ctx context.Context, courseID uuid.UUID) ([]types.Module, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT m.id, m.title, l.title, l.content
		 FROM modules m
		 LEFT JOIN lessons l ON l.module_id = m.id
		 WHERE m.course_id = $1
		 ORDER BY m.position, l.position`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	modules := []types.Module{}
	var lastModuleID uuid.UUID

	for rows.Next() {
		var moduleID uuid.UUID
		var moduleTitle string
		var lessonTitle *string
		var contentJSON []byte

		if err := rows.Scan(&moduleID, &moduleTitle, &lessonTitle, &contentJSON); err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}

		if moduleID != lastModuleID {
			modules = append(modules, types.Module{Title: moduleTitle, Lessons: []types.Lesson{}})
			lastModuleID = moduleID
		}

		if lessonTitle == nil {
			continue
		}
		lesson := types.Lesson{Title: *lessonTitle}
		if err := json.Unmarshal(contentJSON, &lesson.LessonContent); err != nil {
			return nil, fmt.Errorf("failed to decode lesson content: %w", err)
		}
		modules[len(modules)-1].Lessons = append(modules[len(modules)-1].Lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read module rows: %w", err)
	}

	return modules, nil
}

// ListCourses returns a user's courses, newest first.
func (db *DB) ListCourses(ctx context.Context, userID uuid.UUID) ([]CourseSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, title, description, created_at
		 FROM courses WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	summaries := []CourseSummary{}
	for rows.Next() {
		var s CourseSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteCourse removes a course and its modules, lessons and progress via
// cascade. Deleting another user's course reports not found.
func (db *DB) DeleteCourse(ctx context.Context, courseID, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM courses WHERE id = $1 AND user_id = $2`,
		courseID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, courseID)
	}
	return nil
}
