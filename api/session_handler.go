package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/session"
)

func (a *API) registerSessionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("sessions"))

	if err := g.POST("/sessions", a.login,
		forge.WithSummary("Create session"),
		forge.WithDescription("Materializes the subject's roles and policies into a cached session snapshot."),
		forge.WithOperationID("createSession"),
		forge.WithRequestSchema(LoginRequest{}),
		forge.WithCreatedResponse(SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/sessions/:sessionId", a.getSession,
		forge.WithSummary("Get session"),
		forge.WithDescription("Returns the session snapshot."),
		forge.WithOperationID("getSession"),
		forge.WithResponseSchema(http.StatusOK, "Session details", SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/sessions/:sessionId/refresh", a.refreshSession,
		forge.WithSummary("Refresh session"),
		forge.WithDescription("Re-materializes the snapshot so grant changes take effect immediately."),
		forge.WithOperationID("refreshSession"),
		forge.WithResponseSchema(http.StatusOK, "Refreshed session", SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/sessions/:sessionId", a.logout,
		forge.WithSummary("Destroy session"),
		forge.WithDescription("Destroys a session."),
		forge.WithOperationID("destroySession"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/subjects/:subjectId/sessions", a.logoutAll,
		forge.WithSummary("Destroy all subject sessions"),
		forge.WithDescription("Destroys every session belonging to the subject."),
		forge.WithOperationID("destroySubjectSessions"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) login(ctx forge.Context, req *LoginRequest) (*SessionResponse, error) {
	if req.SubjectID == "" {
		return nil, forge.BadRequest("subject_id is required")
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject_id: %v", err))
	}

	snap, err := a.eng.Login(ctx.Context(), subjectID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toSessionResponse(snap)
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) getSession(ctx forge.Context, _ *GetSessionRequest) (*SessionResponse, error) {
	snap, err := a.eng.Sessions().Get(ctx.Context(), ctx.Param("sessionId"))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toSessionResponse(snap)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) refreshSession(ctx forge.Context, _ *GetSessionRequest) (*SessionResponse, error) {
	snap, err := a.eng.RefreshSession(ctx.Context(), ctx.Param("sessionId"))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toSessionResponse(snap)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) logout(ctx forge.Context, _ *GetSessionRequest) (*struct{}, error) {
	if err := a.eng.Logout(ctx.Context(), ctx.Param("sessionId")); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) logoutAll(ctx forge.Context, _ *GetSubjectRequest) (*struct{}, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	if err := a.eng.LogoutAll(ctx.Context(), subjectID); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func toSessionResponse(snap *session.Snapshot) *SessionResponse {
	return &SessionResponse{
		ID:             snap.ID,
		SubjectID:      snap.Subject.ID.String(),
		Roles:          snap.RoleNames(),
		PolicyCount:    len(snap.Policies),
		CreatedAt:      snap.CreatedAt,
		LastAccessedAt: snap.LastAccessedAt,
		ExpiresAt:      snap.ExpiresAt,
	}
}
