// Package cards implements the card actions of an opportunity solution tree
// canvas: typed cards, cloning a card above, below or beside another,
// connecting them, and the collapse, expand and auto-layout menu actions
// that drive the layout engine.
package cards

import (
	"slices"

	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// Card field keys stored in canvas.Node.Fields.
const (
	FieldCardType = "cardType"
	FieldStatus   = "status"
	FieldText     = "text"
	// FieldParent records the id of the card a card was cloned under. Sibling
	// clones connect to it.
	FieldParent = "parentWidgetId"
)

// Type is the kind of a card.
type Type string

// Card types, roughly ordered from strategy to experiment.
const (
	BusinessOutcome Type = "Business Outcome"
	ProductOutcome  Type = "Product Outcome"
	Objective       Type = "Objective"
	KeyResult       Type = "Key Result"
	Opportunity     Type = "Opportunity"
	Solution        Type = "Solution"
	Assumption      Type = "Assumption"
	Experiment      Type = "Experiment"
)

// DefaultType is the type of a card without a cardType field.
const DefaultType = Solution

var types = []Type{
	BusinessOutcome, ProductOutcome, Objective, KeyResult,
	Opportunity, Solution, Assumption, Experiment,
}

type typeInfo struct {
	rank          int
	parent, child Type
	color         string // card border and label
	background    string
}

var typeTable = map[Type]typeInfo{
	BusinessOutcome: {rank: 1, child: ProductOutcome, color: "#44367B", background: "#F3F1F9"},
	ProductOutcome:  {rank: 2, parent: BusinessOutcome, child: Opportunity, color: "#004477", background: "#EBF4FA"},
	Objective:       {rank: 1, child: KeyResult, color: "#44367B", background: "#F3F1F9"},
	KeyResult:       {rank: 2, parent: Objective, child: Opportunity, color: "#004477", background: "#EBF4FA"},
	Opportunity:     {rank: 3, parent: ProductOutcome, child: Solution, color: "#1B8533", background: "#EAF8EE"},
	Solution:        {rank: 4, parent: Opportunity, child: Assumption, color: "#B88907", background: "#FEFAE7"},
	Assumption:      {rank: 5, parent: Solution, child: Experiment, color: "#007384", background: "#E5F7F9"},
	Experiment:      {rank: 6, parent: Assumption, color: "#495257", background: "#F5F7F8"},
}

// Types returns every card type.
func Types() []Type { return slices.Clone(types) }

// ParseType validates a card type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := typeTable[t]; !ok {
		return "", errs.New(errs.ErrCodeInvalidCardType, "unknown card type %q", s)
	}
	return t, nil
}

// TypeOf returns the type recorded in a card's fields, or DefaultType.
func TypeOf(fields map[string]string) Type {
	if t, err := ParseType(fields[FieldCardType]); err == nil {
		return t
	}
	return DefaultType
}

// Rank is the hierarchy level of the type, 1 for the top of a tree.
func (t Type) Rank() int { return typeTable[t].rank }

// Parent returns the type of cards created above a card of type t.
func (t Type) Parent() (Type, bool) {
	p := typeTable[t].parent
	return p, p != ""
}

// Child returns the type of cards created below a card of type t.
func (t Type) Child() (Type, bool) {
	c := typeTable[t].child
	return c, c != ""
}

// Color is the accent color of the card type.
func (t Type) Color() string { return typeTable[t].color }

// Background is the fill color of the card type.
func (t Type) Background() string { return typeTable[t].background }

// Status is the progress label of a card.
type Status string

// Card statuses.
const (
	StatusNone       Status = ""
	StatusNew        Status = "New"
	StatusDiscovery  Status = "Discovery"
	StatusCandidate  Status = "Candidate"
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "In progress"
	StatusDone       Status = "Done"
	StatusOnHold     Status = "On hold"
	StatusBacklog    Status = "Backlog"
	StatusBlocked    Status = "Blocked"
	StatusWontDo     Status = "Won't do"
)

var statusColors = map[Status]string{
	StatusNew:        "#d4d5d8",
	StatusDiscovery:  "#54c7ec",
	StatusCandidate:  "#9747ff",
	StatusPlanned:    "#3578e5",
	StatusInProgress: "#ffba00",
	StatusDone:       "#00a400",
	StatusOnHold:     "#a4a6a8",
	StatusBacklog:    "#d4d5d8",
	StatusBlocked:    "#e13238",
	StatusWontDo:     "#666666",
}

// ParseStatus validates a status name. "" and "none" clear the status.
func ParseStatus(s string) (Status, error) {
	if s == "" || s == "none" {
		return StatusNone, nil
	}
	st := Status(s)
	if _, ok := statusColors[st]; !ok {
		return "", errs.New(errs.ErrCodeInvalidInput, "unknown status %q", s)
	}
	return st, nil
}

// Color is the label color of the status, or "" for no status.
func (s Status) Color() string { return statusColors[s] }
