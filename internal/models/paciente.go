package models

// Paciente is the schema of the patients collection.
type Paciente struct {
	DNI             string `mapstructure:"DNI" validate:"required,max=20"`
	Nombre          string `mapstructure:"Nombre" validate:"required,max=100"`
	Apellido        string `mapstructure:"Apellido,omitempty" validate:"max=100"`
	FechaNacimiento string `mapstructure:"FechaNacimiento,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Telefono        string `mapstructure:"Telefono,omitempty" validate:"max=30"`
	Email           string `mapstructure:"Email,omitempty" validate:"omitempty,email"`
	Direccion       string `mapstructure:"Direccion,omitempty" validate:"max=200"`
	ObraSocial      string `mapstructure:"ObraSocial,omitempty" validate:"max=100"`
	NumeroAfiliado  string `mapstructure:"NumeroAfiliado,omitempty" validate:"max=50"`
}

var pacienteFields = []string{
	"DNI", "Nombre", "Apellido", "FechaNacimiento", "Telefono",
	"Email", "Direccion", "ObraSocial", "NumeroAfiliado",
}
