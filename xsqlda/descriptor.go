package xsqlda

// Var is the Go side of one XSQLVAR. A nil Data is SQL NULL.
type Var struct {
	Type    int16
	Scale   int16
	Subtype int16
	Len     int16
	Data    []byte

	Name     string
	Relation string
	Owner    string
	Alias    string
}

// IsNull reports whether the column holds no value.
func (v *Var) IsNull() bool {
	return v.Data == nil
}

// SetNull clears the value.
func (v *Var) SetNull() {
	v.Data = nil
}

func (v *Var) names() [numNames]string {
	return [numNames]string{v.Name, v.Relation, v.Owner, v.Alias}
}

func (v *Var) setNames(n [numNames]string) {
	v.Name, v.Relation, v.Owner, v.Alias = n[NameField], n[RelationField], n[OwnerField], n[AliasField]
}

// Descriptor is the Go side of an XSQLDA.
type Descriptor struct {
	Version int16
	Sqln    int16
	Sqld    int16
	Vars    []*Var
}

// NewDescriptor returns a descriptor with n empty columns.
func NewDescriptor(n int) *Descriptor {
	d := &Descriptor{
		Version: Version1,
		Sqln:    int16(n),
		Sqld:    int16(n),
		Vars:    make([]*Var, n),
	}
	for i := range d.Vars {
		d.Vars[i] = &Var{}
	}
	return d
}

// Column returns column i or nil when out of range.
func (d *Descriptor) Column(i int) *Var {
	if i < 0 || i >= len(d.Vars) {
		return nil
	}
	return d.Vars[i]
}
