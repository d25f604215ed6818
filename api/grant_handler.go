package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/grant"
	"github.com/xraph/gatehouse/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/subjects/:subjectId/roles", a.grantRole,
		forge.WithSummary("Grant role"),
		forge.WithDescription("Grants a role to a subject, optionally until an expiration time."),
		forge.WithOperationID("grantRole"),
		forge.WithRequestSchema(GrantRoleRequest{}),
		forge.WithCreatedResponse(&grant.RoleGrant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/subjects/:subjectId/roles/:roleId", a.revokeRole,
		forge.WithSummary("Revoke role"),
		forge.WithDescription("Revokes a role from a subject."),
		forge.WithOperationID("revokeRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/subjects/:subjectId/roles", a.listRoleGrants,
		forge.WithSummary("List role grants"),
		forge.WithDescription("Lists the subject's unexpired role grants."),
		forge.WithOperationID("listRoleGrants"),
		forge.WithResponseSchema(http.StatusOK, "Role grants", []*grant.RoleGrant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/subjects/:subjectId/policies", a.grantPolicy,
		forge.WithSummary("Grant policy"),
		forge.WithDescription("Grants a policy directly to a subject, bypassing roles."),
		forge.WithOperationID("grantPolicy"),
		forge.WithRequestSchema(GrantPolicyRequest{}),
		forge.WithCreatedResponse(&grant.PolicyGrant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/subjects/:subjectId/policies/:policyId", a.revokePolicy,
		forge.WithSummary("Revoke policy"),
		forge.WithDescription("Revokes a directly granted policy from a subject."),
		forge.WithOperationID("revokePolicy"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/subjects/:subjectId/policies", a.listPolicyGrants,
		forge.WithSummary("List policy grants"),
		forge.WithDescription("Lists the subject's unexpired direct policy grants."),
		forge.WithOperationID("listPolicyGrants"),
		forge.WithResponseSchema(http.StatusOK, "Policy grants", []*grant.PolicyGrant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/:roleId/policies", a.attachPolicy,
		forge.WithSummary("Attach policy to role"),
		forge.WithDescription("Attaches a policy to a role. Subjects holding the role inherit it."),
		forge.WithOperationID("attachPolicy"),
		forge.WithRequestSchema(AttachPolicyRequest{}),
		forge.WithCreatedResponse(&grant.PolicyAttachment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:roleId/policies/:policyId", a.detachPolicy,
		forge.WithSummary("Detach policy from role"),
		forge.WithDescription("Detaches a policy from a role."),
		forge.WithOperationID("detachPolicy"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId/policies", a.listPolicyAttachments,
		forge.WithSummary("List policy attachments"),
		forge.WithDescription("Lists the role's unexpired policy attachments."),
		forge.WithOperationID("listPolicyAttachments"),
		forge.WithResponseSchema(http.StatusOK, "Policy attachments", []*grant.PolicyAttachment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/grants/expired", a.purgeExpiredGrants,
		forge.WithSummary("Purge expired grants"),
		forge.WithDescription("Deletes all expired role grants, policy grants, and attachments."),
		forge.WithOperationID("purgeExpiredGrants"),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) grantRole(ctx forge.Context, req *GrantRoleRequest) (*grant.RoleGrant, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	g := &grant.RoleGrant{
		ID:        id.NewGrantID(),
		SubjectID: subjectID,
		RoleID:    roleID,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}
	if req.AssignedBy != "" {
		ab, err := id.ParseSubjectID(req.AssignedBy)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid assigned_by: %v", err))
		}
		g.AssignedBy = ab
	}
	if req.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid expires_at: %v", err))
		}
		g.ExpiresAt = &exp
	}

	if err := a.eng.Store().GrantRole(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitRoleGranted(ctx.Context(), g)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) revokeRole(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if err := a.eng.Store().RevokeRole(ctx.Context(), subjectID, roleID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitRoleRevoked(ctx.Context(), subjectID, roleID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listRoleGrants(ctx forge.Context, _ *GetSubjectRequest) ([]*grant.RoleGrant, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	grants, err := a.eng.Store().ListRoleGrants(ctx.Context(), subjectID, time.Now())
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) grantPolicy(ctx forge.Context, req *GrantPolicyRequest) (*grant.PolicyGrant, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}
	policyID, err := id.ParsePolicyID(req.PolicyID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy_id: %v", err))
	}

	g := &grant.PolicyGrant{
		ID:        id.NewGrantID(),
		SubjectID: subjectID,
		PolicyID:  policyID,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}
	if req.AssignedBy != "" {
		ab, err := id.ParseSubjectID(req.AssignedBy)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid assigned_by: %v", err))
		}
		g.AssignedBy = ab
	}
	if req.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid expires_at: %v", err))
		}
		g.ExpiresAt = &exp
	}

	if err := a.eng.Store().GrantPolicy(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyGranted(ctx.Context(), g)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) revokePolicy(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}
	policyID, err := id.ParsePolicyID(ctx.Param("policyId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy ID: %v", err))
	}

	if err := a.eng.Store().RevokePolicy(ctx.Context(), subjectID, policyID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyRevoked(ctx.Context(), subjectID, policyID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listPolicyAttachments(ctx forge.Context, _ *GetRoleRequest) ([]*grant.PolicyAttachment, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	atts, err := a.eng.Store().ListPolicyAttachments(ctx.Context(), roleID, time.Now())
	if err != nil {
		return nil, mapError(err)
	}

	return atts, ctx.JSON(http.StatusOK, atts)
}

func (a *API) listPolicyGrants(ctx forge.Context, _ *GetSubjectRequest) ([]*grant.PolicyGrant, error) {
	subjectID, err := id.ParseSubjectID(ctx.Param("subjectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid subject ID: %v", err))
	}

	grants, err := a.eng.Store().ListPolicyGrants(ctx.Context(), subjectID, time.Now())
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) attachPolicy(ctx forge.Context, req *AttachPolicyRequest) (*grant.PolicyAttachment, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	policyID, err := id.ParsePolicyID(req.PolicyID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy_id: %v", err))
	}

	att := &grant.PolicyAttachment{
		ID:        id.NewGrantID(),
		RoleID:    roleID,
		PolicyID:  policyID,
		Reason:    req.Reason,
		CreatedAt: time.Now(),
	}
	if req.AssignedBy != "" {
		ab, err := id.ParseSubjectID(req.AssignedBy)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid assigned_by: %v", err))
		}
		att.AssignedBy = ab
	}
	if req.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid expires_at: %v", err))
		}
		att.ExpiresAt = &exp
	}

	if err := a.eng.Store().AttachPolicy(ctx.Context(), att); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyAttached(ctx.Context(), att)
	}

	return att, ctx.JSON(http.StatusCreated, att)
}

func (a *API) detachPolicy(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	policyID, err := id.ParsePolicyID(ctx.Param("policyId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy ID: %v", err))
	}

	if err := a.eng.Store().DetachPolicy(ctx.Context(), roleID, policyID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyDetached(ctx.Context(), roleID, policyID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) purgeExpiredGrants(ctx forge.Context, _ *struct{}) (*PurgeResponse, error) {
	n, err := a.eng.Store().DeleteExpiredGrants(ctx.Context(), time.Now())
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Deleted: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}
