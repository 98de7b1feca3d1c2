// Package students fetches academic context from the LMS database.
// All access is read-only; the assistant never mutates LMS state.
package students

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ErrUnavailable reports that academic data cannot be fetched right now.
// Callers substitute a clear "data unavailable" marker instead of failing
var ErrUnavailable = errors.New("academic data unavailable")

// Service renders a student's academic records as a text context block
type Service struct {
	db *gorm.DB
}

// NewService creates a service on an existing LMS connection. A nil db is
// allowed and makes every fetch report ErrUnavailable
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NewMySqlService opens a read-only LMS connection
func NewMySqlService(databaseURL string) (*Service, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open LMS database: %w", err)
	}
	return NewService(db), nil
}

// FetchContext fetches the student's profile, recent grades, and today's
// schedule and renders them as text for the generation context
func (s *Service) FetchContext(ctx context.Context, academicID string) (string, error) {
	if s.db == nil {
		return "", ErrUnavailable
	}

	var student Student
	err := s.db.WithContext(ctx).Take(&student, "nim = ?", academicID).Error
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var grades []Grade
	if err := s.db.WithContext(ctx).
		Where("student_id = ?", student.ID).
		Order("semester DESC").
		Limit(10).
		Find(&grades).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var todaysClasses []ScheduleEntry
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND day_of_week = ?", student.ID, int(time.Now().Weekday())).
		Order("start_time ASC").
		Find(&todaysClasses).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return render(student, grades, todaysClasses), nil
}

func render(student Student, grades []Grade, todaysClasses []ScheduleEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Data mahasiswa:\n")
	fmt.Fprintf(&b, "Nama: %s (NIM: %s)\n", student.FullName, student.NIM)
	fmt.Fprintf(&b, "Jurusan: %s, Semester %d, Status: %s\n", student.Major, student.Semester, student.Status)

	if len(grades) > 0 {
		b.WriteString("\nNilai terbaru:\n")
		for _, grade := range grades {
			fmt.Fprintf(&b, "- %s (semester %d): %.1f (%s)\n", grade.CourseName, grade.Semester, grade.Score, grade.LetterGrade)
		}
	}

	if len(todaysClasses) > 0 {
		b.WriteString("\nJadwal hari ini:\n")
		for _, entry := range todaysClasses {
			fmt.Fprintf(&b, "- %s %s-%s, ruang %s\n", entry.CourseName, entry.StartTime, entry.EndTime, entry.Room)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
