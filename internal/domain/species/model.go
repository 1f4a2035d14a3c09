package species

// Kingdom define los reinos soportados.
// @Enum Animalia, Plantae, Fungi, Protista, Archaea, Bacteria
type Kingdom string

const (
	KingdomAnimalia Kingdom = "Animalia"
	KingdomPlantae  Kingdom = "Plantae"
	KingdomFungi    Kingdom = "Fungi"
	KingdomProtista Kingdom = "Protista"
	KingdomArchaea  Kingdom = "Archaea"
	KingdomBacteria Kingdom = "Bacteria"
)

// Kingdoms en el orden en que se muestran en el select.
func Kingdoms() []Kingdom {
	return []Kingdom{
		KingdomAnimalia,
		KingdomPlantae,
		KingdomFungi,
		KingdomProtista,
		KingdomArchaea,
		KingdomBacteria,
	}
}

func (k Kingdom) Valid() bool {
	for _, v := range Kingdoms() {
		if k == v {
			return true
		}
	}
	return false
}

// Field identifica un campo editable del registro (nombre de columna).
type Field string

const (
	FieldScientificName  Field = "scientific_name"
	FieldCommonName      Field = "common_name"
	FieldKingdom         Field = "kingdom"
	FieldEndangered      Field = "endangered"
	FieldTotalPopulation Field = "total_population"
	FieldImage           Field = "image"
	FieldDescription     Field = "description"
)

// EditableFields en orden de formulario.
func EditableFields() []Field {
	return []Field{
		FieldScientificName,
		FieldCommonName,
		FieldKingdom,
		FieldEndangered,
		FieldTotalPopulation,
		FieldImage,
		FieldDescription,
	}
}

// Fields son los valores normalizados que el usuario puede editar.
// Nil = null en DB; nunca se guarda "" en los campos nullable.
type Fields struct {
	ScientificName  string
	CommonName      *string
	Kingdom         Kingdom
	Endangered      *bool
	TotalPopulation *int64
	Image           *string
	Description     *string
}

// Species es una fila de la tabla species.
type Species struct {
	ID       int64
	AuthorID string

	Fields
}
