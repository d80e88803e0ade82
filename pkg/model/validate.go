package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
	MinRating            = 1
	MaxRating            = 10
)

func init() {
	validate = validator.New()
}

// NodeRequest represents a request to create or update a node.
type NodeRequest struct {
	Name         string       `json:"name" validate:"required,max=120"`
	Category     NodeCategory `json:"category" validate:"required,oneof=Container Component"`
	Description  string       `json:"description" validate:"omitempty,max=2000"`
	Notes        string       `json:"notes" validate:"omitempty,max=2000"`
	ParentNodeID string       `json:"parentNodeId" validate:"omitempty"`
}

// EdgeRequest represents a request to create or update an edge.
type EdgeRequest struct {
	SourceNodeID   string        `json:"sourceNodeId" validate:"required"`
	TargetNodeID   string        `json:"targetNodeId" validate:"required"`
	SourceHandleID string        `json:"sourceHandleId" validate:"omitempty"`
	TargetHandleID string        `json:"targetHandleId" validate:"omitempty"`
	Direction      EdgeDirection `json:"direction" validate:"required,oneof=A_TO_B B_TO_A BIDIRECTIONAL"`
	Name           string        `json:"name" validate:"omitempty,max=120"`
	Protocol       string        `json:"protocol" validate:"omitempty,max=120"`
	Description    string        `json:"description" validate:"omitempty,max=2000"`
	Notes          string        `json:"notes" validate:"omitempty,max=2000"`
}

// DataObjectRequest represents a request to create or update a data object.
type DataObjectRequest struct {
	Name            string    `json:"name" validate:"required,max=120"`
	DataClass       DataClass `json:"dataClass" validate:"required,oneof=Credentials PersonalData SafetyRelevant ProductionData Telemetry Logs IntellectualProperty Configuration Other"`
	Description     string    `json:"description" validate:"omitempty,max=2000"`
	Confidentiality int       `json:"confidentiality" validate:"min=1,max=10"`
	Integrity       int       `json:"integrity" validate:"min=1,max=10"`
	Availability    int       `json:"availability" validate:"min=1,max=10"`
}

// ValidateNodeRequest validates a node creation/update request.
func ValidateNodeRequest(req *NodeRequest) error {
	if req == nil {
		return errors.New("node request cannot be nil")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("Name: field is required")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateEdgeRequest validates an edge creation/update request.
func ValidateEdgeRequest(req *EdgeRequest) error {
	if req == nil {
		return errors.New("edge request cannot be nil")
	}
	if req.SourceNodeID == req.TargetNodeID {
		return errors.New("SourceNodeID: edge endpoints must differ")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateDataObjectRequest validates a data object creation/update request.
func ValidateDataObjectRequest(req *DataObjectRequest) error {
	if req == nil {
		return errors.New("data object request cannot be nil")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("Name: field is required")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateDataRole validates a component-data role value.
func ValidateDataRole(role DataRole) error {
	switch role {
	case RoleStores, RoleProcesses, RoleGenerates, RoleReceives:
		return nil
	}
	return fmt.Errorf("Role: unknown data role %q", role)
}

// ValidateFlowDirection validates an edge-data-flow direction value.
func ValidateFlowDirection(dir FlowDirection) error {
	switch dir {
	case FlowSourceToTarget, FlowTargetToSource, FlowBidirectional:
		return nil
	}
	return fmt.Errorf("Direction: unknown flow direction %q", dir)
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
