package canvas

// Identifier names a canvas contributor. It is implemented by the three
// identifier records.
type Identifier interface {
	Record
	isIdentifier()
}

// IdentifierNumeric is an opaque numeric contributor id.
type IdentifierNumeric uint64

// IdentifierString is a contributor name, typically a username.
type IdentifierString string

// IdentifierSecret is an opaque byte token, typically a session secret that
// must not be shown to users.
type IdentifierSecret []byte

func (IdentifierNumeric) Tag() Tag { return TagIdentifierNumeric }
func (IdentifierString) Tag() Tag  { return TagIdentifierString }
func (IdentifierSecret) Tag() Tag  { return TagIdentifierSecret }

func (IdentifierNumeric) isRecord() {}
func (IdentifierString) isRecord()  {}
func (IdentifierSecret) isRecord()  {}

func (IdentifierNumeric) isIdentifier() {}
func (IdentifierString) isIdentifier()  {}
func (IdentifierSecret) isIdentifier()  {}
