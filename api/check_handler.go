package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates whether the session's subject can perform the action on the resource."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/require", a.require,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzRequire"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/evaluate", a.evaluate,
		forge.WithSummary("Audited authorization check"),
		forge.WithDescription("Like check, but records the decision in the audit log."),
		forge.WithOperationID("authzEvaluate"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch authorization check"),
		forge.WithDescription("Evaluates multiple checks in order and returns a result for each."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/check-field", a.checkField,
		forge.WithSummary("Field-level authorization check"),
		forge.WithDescription("Evaluates whether the session's subject can perform the action on a specific field."),
		forge.WithOperationID("authzCheckField"),
		forge.WithRequestSchema(CheckFieldRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := validateCheck(req); err != nil {
		return nil, err
	}

	dec, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if dec == nil && err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(dec)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) require(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := validateCheck(req); err != nil {
		return nil, err
	}

	dec, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if dec == nil && err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(dec)
	if !dec.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) evaluate(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if err := validateCheck(req); err != nil {
		return nil, err
	}

	dec, err := a.eng.Evaluate(ctx.Context(), toCheckRequest(req))
	if dec == nil && err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(dec)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		c := &req.Checks[i]
		if err := validateCheck(c); err != nil {
			return nil, err
		}
		dec, err := a.eng.Check(ctx.Context(), toCheckRequest(c))
		if dec == nil && err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(dec)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) checkField(ctx forge.Context, req *CheckFieldRequest) (*CheckResponse, error) {
	if req.SessionID == "" || req.Action == "" || req.ResourceType == "" || req.FieldName == "" {
		return nil, forge.BadRequest("session_id, action, resource_type, and field_name are required")
	}

	res := gatehouse.Resource{
		Type:       req.ResourceType,
		ID:         req.ResourceID,
		Attributes: req.Attributes,
	}
	dec, err := a.eng.CheckField(ctx.Context(), req.SessionID, req.Action, res, req.FieldName)
	if dec == nil && err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(dec)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func validateCheck(req *CheckRequest) error {
	if req.SessionID == "" || req.Action == "" || req.ResourceType == "" {
		return forge.BadRequest("session_id, action, and resource_type are required")
	}
	return nil
}

func toCheckRequest(r *CheckRequest) *gatehouse.CheckRequest {
	return &gatehouse.CheckRequest{
		SessionID: r.SessionID,
		Resource: gatehouse.Resource{
			Type:       r.ResourceType,
			ID:         r.ResourceID,
			Attributes: r.Attributes,
		},
		Action: gatehouse.Action{Type: r.Action},
		Environment: gatehouse.Environment{
			IPAddress:  r.IPAddress,
			UserAgent:  r.UserAgent,
			Attributes: r.Environment,
		},
	}
}

func toCheckResponse(d *gatehouse.Decision) *CheckResponse {
	return &CheckResponse{
		Allowed:          d.Allowed,
		Code:             string(d.Code),
		Reason:           d.Reason,
		MatchedPolicyIDs: d.MatchedPolicyIDs,
		EvalTimeNs:       d.EvalTimeNs,
	}
}
