package calibration

import (
	"fmt"
	"time"

	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swaption"
)

// Target is one market premium to fit.
type Target struct {
	Value      float64
	Descriptor Descriptor
	Type       swaption.OptionType
	Node       swaption.NodeKey
}

// Targets is the ordered target list of a calibration together with the swap
// conventions shared by its descriptors.
type Targets struct {
	items         []Target
	reference     time.Time
	fix           swap.Prototype
	float         swap.Prototype
	forwardCurve  string
	discountCurve string
}

// AssembleTargets flattens a payer and a receiver price lattice into one
// target list: every payer quote in lattice order, then every receiver quote
// with its moneyness negated, so that descriptor moneyness is always
// strike minus forward.
func AssembleTargets(payer, receiver *swaption.Lattice) (*Targets, error) {
	if payer.Convention() != swaption.PayerPrice {
		return nil, fmt.Errorf("AssembleTargets: payer lattice is %s: %w", payer.Convention(), ErrQuotingConvention)
	}
	if receiver.Convention() != swaption.ReceiverPrice {
		return nil, fmt.Errorf("AssembleTargets: receiver lattice is %s: %w", receiver.Convention(), ErrQuotingConvention)
	}
	if !payer.SameConventions(receiver) {
		return nil, fmt.Errorf("AssembleTargets: %w", ErrIncompatibleLattices)
	}

	t := newTargets(payer)
	if err := t.append(payer, swaption.Payer); err != nil {
		return nil, fmt.Errorf("AssembleTargets: %w", err)
	}
	if err := t.append(receiver, swaption.Receiver); err != nil {
		return nil, fmt.Errorf("AssembleTargets: %w", err)
	}
	return t, nil
}

func newTargets(l *swaption.Lattice) *Targets {
	return &Targets{
		items:         make([]Target, 0, l.Len()),
		reference:     l.ReferenceDate(),
		fix:           l.FixPrototype(),
		float:         l.FloatPrototype(),
		forwardCurve:  l.ForwardCurve(),
		discountCurve: l.DiscountCurve(),
	}
}

func (t *Targets) append(l *swaption.Lattice, typ swaption.OptionType) error {
	sign := 1
	if typ == swaption.Receiver {
		sign = -1
	}
	for _, k := range l.Keys() {
		d, err := NewDescriptor(sign*k.Moneyness, k.Node(), l.ReferenceDate(), l.Unit())
		if err != nil {
			return fmt.Errorf("%s %+v: %w", typ, k, err)
		}
		v, _ := l.Value(k)
		t.items = append(t.items, Target{Value: v, Descriptor: d, Type: typ, Node: k.Node()})
	}
	return nil
}

func (t *Targets) Len() int {
	return len(t.items)
}

func (t *Targets) Target(i int) Target {
	return t.items[i]
}

// Values returns the target premiums in target order.
func (t *Targets) Values() []float64 {
	out := make([]float64, len(t.items))
	for i, item := range t.items {
		out[i] = item.Value
	}
	return out
}

// Nodes returns the distinct nodes carrying at least one target.
func (t *Targets) Nodes() map[swaption.NodeKey]int {
	out := make(map[swaption.NodeKey]int)
	for _, item := range t.items {
		out[item.Node]++
	}
	return out
}

// Restrict returns the targets for which keep is true, in their original order.
func (t *Targets) Restrict(keep func(Target) bool) *Targets {
	out := *t
	out.items = nil
	for _, item := range t.items {
		if keep(item) {
			out.items = append(out.items, item)
		}
	}
	return &out
}

// Schedules generates the fixed and floating schedules of a descriptor.
func (t *Targets) Schedules(d Descriptor) (fix, float *swap.Schedule, err error) {
	fix, err = t.fix.Generate(t.reference, d.Maturity, d.Termination)
	if err != nil {
		return nil, nil, fmt.Errorf("fixed leg: %w", err)
	}
	float, err = t.float.Generate(t.reference, d.Maturity, d.Termination)
	if err != nil {
		return nil, nil, fmt.Errorf("float leg: %w", err)
	}
	return fix, float, nil
}
