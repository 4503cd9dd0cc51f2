// Package rules holds the pure order and stock rules the dashboard is built on.
package rules

import "github.com/drxagencia/dashboards/internal/entity"

var validNext = map[entity.Status][]entity.Status{
	entity.StatusPending:   {entity.StatusCanceled, entity.StatusPreparing},
	entity.StatusPreparing: {entity.StatusDelivery},
	entity.StatusDelivery:  {entity.StatusFinished},
	entity.StatusFinished:  {},
	entity.StatusCanceled:  {},
}

var actionLabels = map[entity.Status]string{
	entity.StatusCanceled:  "Recusar",
	entity.StatusPreparing: "Aceitar",
	entity.StatusDelivery:  "Saiu para Entrega",
	entity.StatusFinished:  "Concluir Pedido",
}

// AllowedNextStatuses returns the statuses an owner may move an order to.
// Terminal, legacy and unknown statuses have none.
func AllowedNextStatuses(current entity.Status) []entity.Status {
	next := validNext[current.Normalize()]
	out := make([]entity.Status, len(next))
	copy(out, next)
	return out
}

// IsLifecycleStatus reports whether s is one of the five pipeline states.
func IsLifecycleStatus(s entity.Status) bool {
	_, ok := validNext[s]
	return ok
}

// Action is an owner-facing control that moves an order to Target.
type Action struct {
	Target entity.Status
	Label  string
}

// Actions lists the controls offered for an order in the given status.
func Actions(current entity.Status) []Action {
	next := validNext[current.Normalize()]
	actions := make([]Action, 0, len(next))
	for _, target := range next {
		actions = append(actions, Action{Target: target, Label: actionLabels[target]})
	}
	return actions
}

// Style is the display class of a status badge.
type Style struct {
	Tone string
	Icon string
}

var defaultStyle = Style{Tone: "slate", Icon: "clock"}

var styles = map[entity.Status]Style{
	entity.StatusPending:   {Tone: "yellow", Icon: "clock"},
	entity.StatusPreparing: {Tone: "orange", Icon: "chef-hat"},
	entity.StatusDelivery:  {Tone: "blue", Icon: "truck"},
	entity.StatusFinished:  {Tone: "green", Icon: "check-circle"},
	entity.StatusCanceled:  {Tone: "red", Icon: "x-circle"},
}

// displayAliases renders legacy labels like their lifecycle counterpart.
// They are not collapsed in the transition table.
var displayAliases = map[entity.Status]entity.Status{
	entity.StatusInTransit: entity.StatusDelivery,
	entity.StatusDelivered: entity.StatusFinished,
}

// StyleFor returns the badge style for a status.
func StyleFor(status entity.Status) Style {
	status = status.Normalize()
	if alias, ok := displayAliases[status]; ok {
		status = alias
	}
	if style, ok := styles[status]; ok {
		return style
	}
	return defaultStyle
}
