package sim

import "fmt"

// Direction is the side a reactant ticket binds to.
type Direction string

const (
	// STP binds substrates and fires towards products.
	STP Direction = "stp"
	// PTS binds products and fires towards substrates.
	PTS Direction = "pts"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == STP {
		return PTS
	}
	return STP
}

// IsValid reports whether d is STP or PTS.
func (d Direction) IsValid() bool {
	return d == STP || d == PTS
}

// Address locates a reaction set inside a compartment.
type Address struct {
	Compartment string `yaml:"compartment"`
	ReactionSet string `yaml:"reaction_set"`
}

func (a Address) String() string {
	return a.Compartment + "/" + a.ReactionSet
}

// Message is implemented by every payload exchanged between models.
type Message interface {
	Kind() string
	isMessage()
}

// Reactant carries binding tickets for one reaction from a compartment.
type Reactant struct {
	ReactionID string
	EnzymeID   string
	Origin     string // compartment that spent the metabolites
	Direction  Direction
	Tickets    int
}

// Product carries metabolites delivered to the compartment behind the port.
type Product struct {
	Metabolites Amounts
}

// Information reports enzyme units released back to their location.
type Information struct {
	EnzymeID string
	Released int
	Location Address
}

func (Reactant) Kind() string    { return "reactant" }
func (Product) Kind() string     { return "product" }
func (Information) Kind() string { return "information" }

func (Reactant) isMessage()    {}
func (Product) isMessage()     {}
func (Information) isMessage() {}

func (r Reactant) String() string {
	return fmt.Sprintf("Reactant(%s enzyme=%s origin=%s %s x%d)", r.ReactionID, r.EnzymeID, r.Origin, r.Direction, r.Tickets)
}

func (p Product) String() string {
	return fmt.Sprintf("Product(%v)", p.Metabolites)
}

func (i Information) String() string {
	return fmt.Sprintf("Information(%s released=%d at %s)", i.EnzymeID, i.Released, i.Location)
}

// Envelope binds a message to a port. On output the port is the sender's
// output port; on input it is the receiver's input port.
type Envelope struct {
	Port int
	Msg  Message
}

// Bag is the set of messages exchanged in one transition.
type Bag []Envelope

// Merge returns b followed by other.
func (b Bag) Merge(other Bag) Bag {
	if len(other) == 0 {
		return b
	}
	out := make(Bag, 0, len(b)+len(other))
	out = append(out, b...)
	return append(out, other...)
}

// OnPort returns the messages addressed to port.
func (b Bag) OnPort(port int) []Message {
	var out []Message
	for _, env := range b {
		if env.Port == port {
			out = append(out, env.Msg)
		}
	}
	return out
}
