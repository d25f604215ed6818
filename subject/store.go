package subject

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store persists subjects.
type Store interface {
	// CreateSubject inserts a new subject.
	CreateSubject(ctx context.Context, s *Subject) error

	// GetSubject returns a subject by ID.
	GetSubject(ctx context.Context, subjectID id.SubjectID) (*Subject, error)

	// UpdateSubject updates an existing subject.
	UpdateSubject(ctx context.Context, s *Subject) error

	// DeleteSubject removes a subject. Grants referencing the subject
	// are removed with it.
	DeleteSubject(ctx context.Context, subjectID id.SubjectID) error

	// ListSubjects returns subjects matching the filter.
	ListSubjects(ctx context.Context, filter ListFilter) ([]*Subject, error)
}
