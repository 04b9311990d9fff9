package models

import (
	"errors"
	"fmt"
)

// Collection names a registered document collection.
type Collection string

const (
	Patients     Collection = "pacientes"
	Doctors      Collection = "medicos"
	Appointments Collection = "turnos"

	// IDField is the key the store assigned identity is exposed under.
	IDField = "_id"
	// DNIField is the national identity number field.
	DNIField = "DNI"
)

// ErrUnknownCollection is returned for names that are not in the registry.
var ErrUnknownCollection = errors.New("unknown collection")

// Descriptor is the static definition of a collection: its schema, its
// uniqueness constraints and the fields exposed for exact-match lookups.
type Descriptor struct {
	Collection Collection
	// Singular is the display name used in response messages.
	Singular string
	// NewModel returns a pointer to a zero value of the schema struct.
	NewModel func() interface{}
	// Fields is the allow-list of storable field names.
	Fields []string
	// UniqueFields may never share a value between two records of the collection.
	UniqueFields []string
	// IndexedFields maps a URL segment to the field it filters on.
	IndexedFields map[string]string
	// Defaults are applied on create for missing fields.
	Defaults map[string]interface{}
	HasDNI   bool
}

var registry = map[Collection]Descriptor{
	Patients: {
		Collection: Patients,
		Singular:   "Patient",
		NewModel:   func() interface{} { return &Paciente{} },
		Fields:     pacienteFields,
		UniqueFields: []string{
			DNIField,
		},
		IndexedFields: map[string]string{
			"obra-social": "ObraSocial",
		},
		HasDNI: true,
	},
	Doctors: {
		Collection:   Doctors,
		Singular:     "Doctor",
		NewModel:     func() interface{} { return &Medico{} },
		Fields:       medicoFields,
		UniqueFields: []string{DNIField, "Matricula"},
		IndexedFields: map[string]string{
			"especialidad": "Especialidad",
		},
		Defaults: map[string]interface{}{
			"Activo": true,
		},
		HasDNI: true,
	},
	Appointments: {
		Collection: Appointments,
		Singular:   "Appointment",
		NewModel:   func() interface{} { return &Turno{} },
		Fields:     turnoFields,
		IndexedFields: map[string]string{
			"paciente": "Paciente",
			"medico":   "Medico",
			"estado":   "Estado",
		},
		Defaults: map[string]interface{}{
			"Estado": EstadoPendiente,
		},
	},
}

// Collections lists every registered collection in a fixed order.
func Collections() []Collection {
	return []Collection{Patients, Doctors, Appointments}
}

// Lookup returns the descriptor registered for the collection.
func Lookup(c Collection) (Descriptor, error) {
	d, ok := registry[c]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	return d, nil
}

// ParseCollection converts a raw name into a registered Collection.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if _, err := Lookup(c); err != nil {
		return "", err
	}
	return c, nil
}

// HasField reports whether the field is part of the collection schema.
func (d Descriptor) HasField(field string) bool {
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

func (c Collection) String() string {
	return string(c)
}
