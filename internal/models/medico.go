package models

// Medico is the schema of the doctors collection.
type Medico struct {
	DNI          string `mapstructure:"DNI" validate:"required,max=20"`
	Nombre       string `mapstructure:"Nombre" validate:"required,max=100"`
	Apellido     string `mapstructure:"Apellido" validate:"required,max=100"`
	Especialidad string `mapstructure:"Especialidad" validate:"required,max=100"`
	Matricula    string `mapstructure:"Matricula" validate:"required,max=50"`
	Telefono     string `mapstructure:"Telefono,omitempty" validate:"max=30"`
	Email        string `mapstructure:"Email,omitempty" validate:"omitempty,email"`
	Activo       bool   `mapstructure:"Activo"`
}

var medicoFields = []string{
	"DNI", "Nombre", "Apellido", "Especialidad", "Matricula",
	"Telefono", "Email", "Activo",
}
