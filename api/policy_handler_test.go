package api

import (
	"testing"

	"github.com/xraph/gatehouse"
)

func TestValidatePolicyTarget(t *testing.T) {
	tests := []struct {
		name         string
		resourceType string
		actionType   string
		wantErr      bool
	}{
		{"valid pair", gatehouse.ResourceEntries, gatehouse.ActionRead, false},
		{"missing resource type", "", gatehouse.ActionRead, true},
		{"missing action type", gatehouse.ResourceEntries, "", true},
		{"both missing", "", "", true},
		{"unknown resource type", "widgets", gatehouse.ActionRead, true},
		{"unknown action type", gatehouse.ResourceEntries, "teleport", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePolicyTarget(tt.resourceType, tt.actionType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validatePolicyTarget(%q, %q) err = %v, wantErr %v",
					tt.resourceType, tt.actionType, err, tt.wantErr)
			}
		})
	}
}
