package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/decisionlog"
	"github.com/xraph/gatehouse/id"
)

func (a *API) registerDecisionLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("decision-logs"))

	if err := g.GET("/decision-logs", a.listDecisionLogs,
		forge.WithSummary("Query decision logs"),
		forge.WithDescription("Returns authorization decision audit logs with optional filters."),
		forge.WithOperationID("listDecisionLogs"),
		forge.WithRequestSchema(ListDecisionLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision log list", ListResponse[*decisionlog.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/decision-logs/:logId", a.getDecisionLog,
		forge.WithSummary("Get decision log"),
		forge.WithDescription("Returns a single decision log entry."),
		forge.WithOperationID("getDecisionLog"),
		forge.WithResponseSchema(http.StatusOK, "Decision log entry", &decisionlog.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/decision-logs", a.purgeDecisionLogs,
		forge.WithSummary("Purge decision logs"),
		forge.WithDescription("Deletes decision logs created before the given time."),
		forge.WithOperationID("purgeDecisionLogs"),
		forge.WithRequestSchema(PurgeDecisionLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listDecisionLogs(ctx forge.Context, req *ListDecisionLogsRequest) (*ListResponse[*decisionlog.Entry], error) {
	filter := &decisionlog.QueryFilter{
		SubjectID:    req.SubjectID,
		SessionID:    req.SessionID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		ActionType:   req.ActionType,
		Code:         req.Code,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}

	if req.Allowed == "true" {
		t := true
		filter.Allowed = &t
	} else if req.Allowed == "false" {
		f := false
		filter.Allowed = &f
	}
	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, err := a.eng.Store().ListDecisionLogs(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountDecisionLogs(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*decisionlog.Entry]{
		Items:  logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getDecisionLog(ctx forge.Context, _ *GetDecisionLogRequest) (*decisionlog.Entry, error) {
	logID, err := id.ParseDecisionLogID(ctx.Param("logId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid decision log ID: %v", err))
	}

	entry, err := a.eng.Store().GetDecisionLog(ctx.Context(), logID)
	if err != nil {
		return nil, mapError(err)
	}

	return entry, ctx.JSON(http.StatusOK, entry)
}

func (a *API) purgeDecisionLogs(ctx forge.Context, req *PurgeDecisionLogsRequest) (*PurgeResponse, error) {
	if req.Before == "" {
		return nil, forge.BadRequest("before is required")
	}
	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid before timestamp")
	}

	n, err := a.eng.Store().PurgeDecisionLogs(ctx.Context(), before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Deleted: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}
