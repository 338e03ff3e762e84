package types

// TrinaryLogic is the three-valued answer of a subtype check.
type TrinaryLogic int8

const (
	No TrinaryLogic = iota
	Maybe
	Yes
)

func (t TrinaryLogic) IsYes() bool   { return t == Yes }
func (t TrinaryLogic) IsMaybe() bool { return t == Maybe }
func (t TrinaryLogic) IsNo() bool    { return t == No }

// And returns the weakest of the operands.
func (t TrinaryLogic) And(others ...TrinaryLogic) TrinaryLogic {
	result := t
	for _, other := range others {
		if other < result {
			result = other
		}
	}
	return result
}

// Or returns the strongest of the operands.
func (t TrinaryLogic) Or(others ...TrinaryLogic) TrinaryLogic {
	result := t
	for _, other := range others {
		if other > result {
			result = other
		}
	}
	return result
}

func (t TrinaryLogic) Negate() TrinaryLogic {
	switch t {
	case Yes:
		return No
	case No:
		return Yes
	default:
		return Maybe
	}
}

func (t TrinaryLogic) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Maybe"
	}
}

// ExtremeIdentity is Yes when every value is Yes, No when every value is No and Maybe otherwise.
func ExtremeIdentity(values ...TrinaryLogic) TrinaryLogic {
	if len(values) == 0 {
		return No
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return Maybe
		}
	}
	return first
}

// Maximum returns the strongest value, No for an empty list.
func Maximum(values ...TrinaryLogic) TrinaryLogic {
	return No.Or(values...)
}
