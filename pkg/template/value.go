package template

// Value is a property value from a template: a literal, an intrinsic
// reference, or a nested structure. The synthesis core only evaluates the
// restricted grammar literal | reference | concatenation; every other
// intrinsic is carried as Unknown and resolves to a wildcard.
type Value interface {
	isValue()
}

// String is a literal string value.
type String string

// Ref is the Ref intrinsic: a reference to a parameter, another resource,
// or a pseudo parameter such as AWS::Region.
type Ref struct {
	Target string
}

// GetAtt is the Fn::GetAtt intrinsic.
type GetAtt struct {
	LogicalID string
	Attribute string
}

// Sub is the string form of the Fn::Sub intrinsic. Substitution segments
// are parsed at evaluation time.
type Sub struct {
	Template string
}

// Join is the Fn::Join intrinsic: concatenation with a delimiter.
type Join struct {
	Delimiter string
	Parts     []Value
}

// Unknown marks an intrinsic outside the evaluable grammar
// (Fn::ImportValue, Fn::Select, the two-argument Fn::Sub form, ...).
type Unknown struct {
	Fn string
}

// Map is a nested property structure.
type Map map[string]Value

// List is a sequence property value.
type List []Value

func (String) isValue()  {}
func (Ref) isValue()     {}
func (GetAtt) isValue()  {}
func (Sub) isValue()     {}
func (Join) isValue()    {}
func (Unknown) isValue() {}
func (Map) isValue()     {}
func (List) isValue()    {}
