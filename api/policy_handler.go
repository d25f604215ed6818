package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/policy"
)

func (a *API) registerPolicyRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("policies"))

	if err := g.POST("/policies", a.createPolicy,
		forge.WithSummary("Create policy"),
		forge.WithDescription("Creates a new ABAC policy with its rules."),
		forge.WithOperationID("createPolicy"),
		forge.WithRequestSchema(CreatePolicyRequest{}),
		forge.WithCreatedResponse(&policy.Policy{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/policies/:policyId", a.getPolicy,
		forge.WithSummary("Get policy"),
		forge.WithDescription("Returns details of a specific policy."),
		forge.WithOperationID("getPolicy"),
		forge.WithResponseSchema(http.StatusOK, "Policy details", &policy.Policy{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/policies/:policyId", a.updatePolicy,
		forge.WithSummary("Update policy"),
		forge.WithDescription("Updates an existing policy. Providing rules replaces the rule set."),
		forge.WithOperationID("updatePolicy"),
		forge.WithRequestSchema(UpdatePolicyRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated policy", &policy.Policy{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/policies/:policyId", a.deletePolicy,
		forge.WithSummary("Delete policy"),
		forge.WithDescription("Deletes a policy along with its grants and attachments."),
		forge.WithOperationID("deletePolicy"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/policies", a.listPolicies,
		forge.WithSummary("List policies"),
		forge.WithDescription("Lists policies with optional filters."),
		forge.WithOperationID("listPolicies"),
		forge.WithRequestSchema(ListPoliciesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Policy list", []*policy.Policy{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createPolicy(ctx forge.Context, req *CreatePolicyRequest) (*policy.Policy, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	effect := policy.Effect(req.Effect)
	if effect != policy.EffectAllow && effect != policy.EffectDeny {
		return nil, forge.BadRequest("effect must be ALLOW or DENY")
	}
	connector := policy.Connector(req.Connector)
	if req.Connector == "" {
		connector = policy.ConnectorAnd
	}
	if connector != policy.ConnectorAnd && connector != policy.ConnectorOr {
		return nil, forge.BadRequest("connector must be AND or OR")
	}
	if err := validatePolicyTarget(req.ResourceType, req.ActionType); err != nil {
		return nil, err
	}

	rules, err := toRules(req.Rules)
	if err != nil {
		return nil, mapError(err)
	}

	now := time.Now()
	p := &policy.Policy{
		ID:           id.NewPolicyID(),
		Name:         req.Name,
		Description:  req.Description,
		Effect:       effect,
		Priority:     req.Priority,
		ResourceType: req.ResourceType,
		ActionType:   req.ActionType,
		Connector:    connector,
		IsActive:     req.IsActive,
		Rules:        rules,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.eng.Store().CreatePolicy(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyCreated(ctx.Context(), p)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getPolicy(ctx forge.Context, _ *GetPolicyRequest) (*policy.Policy, error) {
	policyID, err := id.ParsePolicyID(ctx.Param("policyId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy ID: %v", err))
	}

	p, err := a.eng.Store().GetPolicy(ctx.Context(), policyID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) updatePolicy(ctx forge.Context, req *UpdatePolicyRequest) (*policy.Policy, error) {
	policyID, err := id.ParsePolicyID(ctx.Param("policyId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy ID: %v", err))
	}

	p, err := a.eng.Store().GetPolicy(ctx.Context(), policyID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Effect != "" {
		effect := policy.Effect(req.Effect)
		if effect != policy.EffectAllow && effect != policy.EffectDeny {
			return nil, forge.BadRequest("effect must be ALLOW or DENY")
		}
		p.Effect = effect
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.ResourceType != nil {
		p.ResourceType = *req.ResourceType
	}
	if req.ActionType != nil {
		p.ActionType = *req.ActionType
	}
	if err := validatePolicyTarget(p.ResourceType, p.ActionType); err != nil {
		return nil, err
	}
	if req.Connector != "" {
		connector := policy.Connector(req.Connector)
		if connector != policy.ConnectorAnd && connector != policy.ConnectorOr {
			return nil, forge.BadRequest("connector must be AND or OR")
		}
		p.Connector = connector
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Rules != nil {
		rules, err := toRules(req.Rules)
		if err != nil {
			return nil, mapError(err)
		}
		p.Rules = rules
	}
	if req.Metadata != nil {
		p.Metadata = req.Metadata
	}
	p.UpdatedAt = time.Now()

	if err := a.eng.Store().UpdatePolicy(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyUpdated(ctx.Context(), p)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deletePolicy(ctx forge.Context, _ *GetPolicyRequest) (*struct{}, error) {
	policyID, err := id.ParsePolicyID(ctx.Param("policyId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid policy ID: %v", err))
	}

	if err := a.eng.Store().DeletePolicy(ctx.Context(), policyID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitPolicyDeleted(ctx.Context(), policyID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listPolicies(ctx forge.Context, req *ListPoliciesRequest) ([]*policy.Policy, error) {
	filter := policy.ListFilter{
		Effect:       policy.Effect(req.Effect),
		ResourceType: req.ResourceType,
		ActionType:   req.ActionType,
		Search:       req.Search,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}
	if req.Active == "true" {
		t := true
		filter.IsActive = &t
	} else if req.Active == "false" {
		f := false
		filter.IsActive = &f
	}

	policies, err := a.eng.Store().ListPolicies(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return policies, ctx.JSON(http.StatusOK, policies)
}

// validatePolicyTarget requires a policy to target exactly one known
// resource type and one known action type.
func validatePolicyTarget(resourceType, actionType string) error {
	if resourceType == "" || actionType == "" {
		return forge.BadRequest("resource_type and action_type are required")
	}
	if !gatehouse.ValidResourceType(resourceType) {
		return forge.BadRequest(fmt.Sprintf("unknown resource_type %q", resourceType))
	}
	if !gatehouse.ValidActionType(actionType) {
		return forge.BadRequest(fmt.Sprintf("unknown action_type %q", actionType))
	}
	return nil
}

// toRules converts and validates rule inputs.
func toRules(inputs []RuleInput) ([]policy.Rule, error) {
	rules := make([]policy.Rule, 0, len(inputs))
	for i, in := range inputs {
		if in.AttributePath == "" {
			return nil, fmt.Errorf("%w: rule %d: attribute_path is required", gatehouse.ErrInvalidRule, i)
		}
		op := policy.Operator(in.Operator)
		if !policy.ValidOperator(op) {
			return nil, fmt.Errorf("%w: rule %d: unknown operator %q", gatehouse.ErrInvalidRule, i, in.Operator)
		}
		vt := policy.ValueType(in.ValueType)
		if !policy.ValidValueType(vt) {
			return nil, fmt.Errorf("%w: rule %d: unknown value_type %q", gatehouse.ErrInvalidRule, i, in.ValueType)
		}
		order := in.Order
		if order == 0 {
			order = i
		}
		rules = append(rules, policy.Rule{
			ID:            id.NewRuleID(),
			AttributePath: in.AttributePath,
			Operator:      op,
			ExpectedValue: in.ExpectedValue,
			ValueType:     vt,
			Order:         order,
			IsActive:      in.IsActive,
		})
	}
	return rules, nil
}
