package models

const (
	EstadoPendiente  = "pendiente"
	EstadoConfirmado = "confirmado"
	EstadoCancelado  = "cancelado"
	EstadoCompletado = "completado"
)

// Turno is the schema of the appointments collection. Paciente and Medico
// hold the identities of the referenced records.
type Turno struct {
	Paciente      string `mapstructure:"Paciente" validate:"required"`
	Medico        string `mapstructure:"Medico" validate:"required"`
	Fecha         string `mapstructure:"Fecha" validate:"required,datetime=2006-01-02"`
	Hora          string `mapstructure:"Hora" validate:"required,datetime=15:04"`
	Motivo        string `mapstructure:"Motivo,omitempty" validate:"max=500"`
	Estado        string `mapstructure:"Estado" validate:"required,oneof=pendiente confirmado cancelado completado"`
	Observaciones string `mapstructure:"Observaciones,omitempty" validate:"max=1000"`
}

var turnoFields = []string{
	"Paciente", "Medico", "Fecha", "Hora", "Motivo", "Estado", "Observaciones",
}
