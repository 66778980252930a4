package domain

import "strings"

// Protocol is a named preset that seeds default numerical parameters
// before user overrides are applied.
type Protocol string

const (
	ProtocolFast     Protocol = "fast"
	ProtocolModerate Protocol = "moderate"
	ProtocolPrecise  Protocol = "precise"
)

// RelaxType selects which degrees of freedom the relaxation stage optimizes.
type RelaxType string

const (
	RelaxTypeNone          RelaxType = "none"
	RelaxTypePositions     RelaxType = "positions"
	RelaxTypePositionsCell RelaxType = "positions_cell"
)

// ElectronicType declares the expected electronic character of the structure.
type ElectronicType string

const (
	ElectronicTypeMetal     ElectronicType = "metal"
	ElectronicTypeInsulator ElectronicType = "insulator"
)

// SpinType declares the spin treatment of the calculation.
type SpinType string

const (
	SpinTypeNone      SpinType = "none"
	SpinTypeCollinear SpinType = "collinear"
)

func ParseProtocol(value string) (Protocol, bool) {
	switch Protocol(strings.ToLower(strings.TrimSpace(value))) {
	case ProtocolFast:
		return ProtocolFast, true
	case ProtocolModerate:
		return ProtocolModerate, true
	case ProtocolPrecise:
		return ProtocolPrecise, true
	default:
		return "", false
	}
}

func ParseRelaxType(value string) (RelaxType, bool) {
	switch RelaxType(strings.ToLower(strings.TrimSpace(value))) {
	case RelaxTypeNone:
		return RelaxTypeNone, true
	case RelaxTypePositions:
		return RelaxTypePositions, true
	case RelaxTypePositionsCell:
		return RelaxTypePositionsCell, true
	default:
		return "", false
	}
}

func ParseElectronicType(value string) (ElectronicType, bool) {
	switch ElectronicType(strings.ToLower(strings.TrimSpace(value))) {
	case ElectronicTypeMetal:
		return ElectronicTypeMetal, true
	case ElectronicTypeInsulator:
		return ElectronicTypeInsulator, true
	default:
		return "", false
	}
}

func ParseSpinType(value string) (SpinType, bool) {
	switch SpinType(strings.ToLower(strings.TrimSpace(value))) {
	case SpinTypeNone:
		return SpinTypeNone, true
	case SpinTypeCollinear:
		return SpinTypeCollinear, true
	default:
		return "", false
	}
}
