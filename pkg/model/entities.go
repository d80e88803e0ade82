package model

// NodeCategory distinguishes grouping containers from leaf components.
type NodeCategory string

const (
	CategoryContainer NodeCategory = "Container"
	CategoryComponent NodeCategory = "Component"
)

// GlobalContainerName is the name of the protected root container.
// It can never be deleted or reparented.
const GlobalContainerName = "Global"

// EdgeDirection describes which way an interface points.
type EdgeDirection string

const (
	DirectionAToB          EdgeDirection = "A_TO_B"
	DirectionBToA          EdgeDirection = "B_TO_A"
	DirectionBidirectional EdgeDirection = "BIDIRECTIONAL"
)

// DataClass is the closed classification enum for data objects.
type DataClass string

const (
	ClassCredentials          DataClass = "Credentials"
	ClassPersonalData         DataClass = "PersonalData"
	ClassSafetyRelevant       DataClass = "SafetyRelevant"
	ClassProductionData       DataClass = "ProductionData"
	ClassTelemetry            DataClass = "Telemetry"
	ClassLogs                 DataClass = "Logs"
	ClassIntellectualProperty DataClass = "IntellectualProperty"
	ClassConfiguration        DataClass = "Configuration"
	ClassOther                DataClass = "Other"
)

// DataRole expresses how a component relates to a data object.
type DataRole string

const (
	RoleStores    DataRole = "Stores"
	RoleProcesses DataRole = "Processes"
	RoleGenerates DataRole = "Generates"
	RoleReceives  DataRole = "Receives"
)

// FlowDirection describes which way data travels over an edge.
type FlowDirection string

const (
	FlowSourceToTarget FlowDirection = "SourceToTarget"
	FlowTargetToSource FlowDirection = "TargetToSource"
	FlowBidirectional  FlowDirection = "Bidirectional"
)

// Node is a container or a component in the model graph.
// ParentNodeID is a weak reference; the parent chain is always acyclic.
type Node struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     NodeCategory `json:"category"`
	Description  string       `json:"description,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	ParentNodeID string       `json:"parentNodeId,omitempty"`
}

// IsContainer reports whether the node groups other nodes.
func (n *Node) IsContainer() bool {
	return n.Category == CategoryContainer
}

// IsGlobal reports whether the node is the protected root container.
func (n *Node) IsGlobal() bool {
	return n.Category == CategoryContainer && n.Name == GlobalContainerName && n.ParentNodeID == ""
}

// Edge is a directed or bidirectional interface between two nodes.
// At most one edge exists per ordered (source, target) pair.
type Edge struct {
	ID             string        `json:"id"`
	SourceNodeID   string        `json:"sourceNodeId"`
	TargetNodeID   string        `json:"targetNodeId"`
	SourceHandleID string        `json:"sourceHandleId,omitempty"`
	TargetHandleID string        `json:"targetHandleId,omitempty"`
	Direction      EdgeDirection `json:"direction"`
	Name           string        `json:"name,omitempty"`
	Protocol       string        `json:"protocol,omitempty"`
	Description    string        `json:"description,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

// Touches reports whether the edge has the given node as an endpoint.
func (e *Edge) Touches(nodeID string) bool {
	return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
}

// DataObject is a class of data plus its security attributes.
// Names are unique within a project; collisions get a " (2)", " (3)", ... suffix.
type DataObject struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DataClass       DataClass `json:"dataClass"`
	Description     string    `json:"description,omitempty"`
	Confidentiality int       `json:"confidentiality"`
	Integrity       int       `json:"integrity"`
	Availability    int       `json:"availability"`
}

// ComponentDataLink expresses "this component <role>s this data".
// Unique per (NodeID, DataObjectID); re-assigning overwrites the role.
type ComponentDataLink struct {
	NodeID       string   `json:"nodeId"`
	DataObjectID string   `json:"dataObjectId"`
	Role         DataRole `json:"role"`
}

// EdgeDataFlow expresses which data travels over which interface.
// Unique per (EdgeID, DataObjectID); re-assigning overwrites the direction.
type EdgeDataFlow struct {
	EdgeID       string        `json:"edgeId"`
	DataObjectID string        `json:"dataObjectId"`
	Direction    FlowDirection `json:"direction"`
}

// Savepoint is a named, timestamped full copy of the canonical model.
type Savepoint struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

// SavepointState is the full entity payload recorded with a savepoint.
type SavepointState struct {
	Nodes          []Node              `json:"nodes"`
	Edges          []Edge              `json:"edges"`
	DataObjects    []DataObject        `json:"dataObjects"`
	ComponentData  []ComponentDataLink `json:"componentData"`
	EdgeFlows      []EdgeDataFlow      `json:"edgeFlows"`
	Layout         LayoutState         `json:"layout"`
}

// RestoreResult reports what a savepoint restore brought back.
// Warning carries a non-fatal message about partially-unavailable
// auxiliary data, distinct from a hard failure.
type RestoreResult struct {
	NodeCount          int         `json:"nodeCount"`
	EdgeCount          int         `json:"edgeCount"`
	DataObjectCount    int         `json:"dataObjectCount"`
	ComponentDataCount int         `json:"componentDataCount"`
	EdgeFlowCount      int         `json:"edgeFlowCount"`
	Layout             LayoutState `json:"layout"`
	Warning            string      `json:"warning,omitempty"`
}

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the extent of a container rectangle.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutState is presentation-only geometry keyed by node id. It is never
// authoritative for identity or invariants and may be absent entirely.
type LayoutState struct {
	Positions map[string]Position `json:"positions,omitempty"`
	Sizes     map[string]Size     `json:"sizes,omitempty"`
}

// Clone returns a deep copy of the layout state.
func (ls LayoutState) Clone() LayoutState {
	out := LayoutState{}
	if ls.Positions != nil {
		out.Positions = make(map[string]Position, len(ls.Positions))
		for id, p := range ls.Positions {
			out.Positions[id] = p
		}
	}
	if ls.Sizes != nil {
		out.Sizes = make(map[string]Size, len(ls.Sizes))
		for id, s := range ls.Sizes {
			out.Sizes[id] = s
		}
	}
	return out
}
