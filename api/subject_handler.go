package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/subject"
)

func (a *API) registerSubjectRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("subjects"))

	if err := g.POST("/subjects", a.createSubject,
		forge.WithSummary("Create subject"),
		forge.WithDescription("Creates a new subject."),
		forge.WithOperationID("createSubject"),
		forge.WithRequestSchema(CreateSubjectRequest{}),
		forge.WithCreatedResponse(&subject.Subject{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/subjects/:subjectId", a.getSubject,
		forge.WithSummary("Get subject"),
		forge.WithDescription("Returns details of a specific subject."),
		forge.WithOperationID("getSubject"),
		forge.WithResponseSchema(http.StatusOK, "Subject details", &subject.Subject{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/subjects/:subjectId", a.updateSubject,
		forge.WithSummary("Update subject"),
		forge.WithDescription("Updates an existing subject. Deactivating a subject destroys its sessions."),
		forge.WithOperationID("updateSubject"),
		forge.WithRequestSchema(UpdateSubjectRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated subject", &subject.Subject{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/subjects/:subjectId", a.deleteSubject,
		forge.WithSummary("Delete subject"),
		forge.WithDescription("Deletes a subject along with its grants and sessions."),
		forge.WithOperationID("deleteSubject"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/subjects", a.listSubjects,
		forge.WithSummary("List subjects"),
		forge.WithDescription("Lists subjects with optional filters."),
		forge.WithOperationID("listSubjects"),
		forge.WithRequestSchema(ListSubjectsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Subject list", []*subject.Subject{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createSubject(ctx forge.Context, req *CreateSubjectRequest) (*subject.Subject, error) {
	if req.DisplayName == "" {
		return nil, forge.BadRequest("display_name is required")
	}

	status := subject.Status(req.Status)
	if req.Status == "" {
		status = subject.StatusActive
	}
	switch status {
	case subject.StatusActive, subject.StatusInactive, subject.StatusBanned:
	default:
		return nil, forge.BadRequest(fmt.Sprintf("invalid status %q", req.Status))
	}

	now := time.Now()
	sub := &subject.Subject{
		ID:          id.NewSubjectID(),
		DisplayName: req.DisplayName,
		Status:      status,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.eng.Store().CreateSubject(ctx.Context(), sub); err != nil {
		return nil, mapError(err)
	}

	return sub, ctx.JSON(http.StatusCreated, sub)
}

func (a *API) getSubject(ctx forge.Context, _ *GetSubjectRequest) (*subject.Subject, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	sub, err := a.eng.Store().GetSubject(ctx.Context(), subjectID)
	if err != nil {
		return nil, mapError(err)
	}

	return sub, ctx.JSON(http.StatusOK, sub)
}

func (a *API) updateSubject(ctx forge.Context, req *UpdateSubjectRequest) (*subject.Subject, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	sub, err := a.eng.Store().GetSubject(ctx.Context(), subjectID)
	if err != nil {
		return nil, mapError(err)
	}

	wasActive := sub.IsActive()
	if req.DisplayName != "" {
		sub.DisplayName = req.DisplayName
	}
	if req.Status != "" {
		status := subject.Status(req.Status)
		switch status {
		case subject.StatusActive, subject.StatusInactive, subject.StatusBanned:
			sub.Status = status
		default:
			return nil, forge.BadRequest(fmt.Sprintf("invalid status %q", req.Status))
		}
	}
	if req.Metadata != nil {
		sub.Metadata = req.Metadata
	}
	sub.UpdatedAt = time.Now()

	if err := a.eng.Store().UpdateSubject(ctx.Context(), sub); err != nil {
		return nil, mapError(err)
	}

	// A deactivated subject must not retain usable sessions.
	if wasActive && !sub.IsActive() {
		if err := a.eng.LogoutAll(ctx.Context(), subjectID); err != nil {
			return nil, mapError(err)
		}
	}

	return sub, ctx.JSON(http.StatusOK, sub)
}

func (a *API) deleteSubject(ctx forge.Context, _ *GetSubjectRequest) (*struct{}, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	if err := a.eng.LogoutAll(ctx.Context(), subjectID); err != nil {
		return nil, mapError(err)
	}
	if err := a.eng.Store().DeleteSubject(ctx.Context(), subjectID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listSubjects(ctx forge.Context, req *ListSubjectsRequest) ([]*subject.Subject, error) {
	filter := subject.ListFilter{
		Status: subject.Status(req.Status),
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	subjects, err := a.eng.Store().ListSubjects(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return subjects, ctx.JSON(http.StatusOK, subjects)
}
