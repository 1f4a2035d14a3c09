package species

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError es un error de validación asociado a un campo.
type FieldError struct {
	Field   Field
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors acumula errores por campo (un mensaje por campo).
type FieldErrors map[Field]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for f := range e {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[Field(k)]))
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Mensajes que ve el usuario debajo de cada input.
const (
	msgRequired        = "Scientific name is required"
	msgInvalidURL      = "Invalid url"
	msgInvalidKingdom  = "Invalid kingdom"
	msgInvalidSelect   = "Invalid endangered selection"
	msgExpectedInteger = "Expected integer"
	msgPositive        = "Number must be greater than 0"
	msgBlank           = "Must be null instead of blank"
)

// Schema aplica las reglas declarativas de cada campo del registro.
// Es seguro para uso concurrente.
type Schema struct {
	v          *validator.Validate
	kingdomTag string
}

// checked son las reglas sobre valores ya normalizados (ver Check).
type checked struct {
	ScientificName  string  `field:"scientific_name" validate:"required"`
	Kingdom         string  `field:"kingdom" validate:"required,oneof=Animalia Plantae Fungi Protista Archaea Bacteria"`
	TotalPopulation *int64  `field:"total_population" validate:"omitempty,min=1"`
	Image           *string `field:"image" validate:"omitempty,url"`
}

func NewSchema() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return sf.Tag.Get("field")
	})

	names := make([]string, 0, len(Kingdoms()))
	for _, k := range Kingdoms() {
		names = append(names, string(k))
	}

	return &Schema{
		v:          v,
		kingdomTag: "required,oneof=" + strings.Join(names, " "),
	}
}

// Apply valida raw con la regla del campo f y, si es válido, escribe el valor
// normalizado en in. Si no es válido, in no se modifica y se devuelve *FieldError.
func (s *Schema) Apply(in *Fields, f Field, raw string) error {
	switch f {
	case FieldScientificName:
		v := strings.TrimSpace(raw)
		if err := s.v.Var(v, "required"); err != nil {
			return &FieldError{Field: f, Message: msgRequired}
		}
		in.ScientificName = v

	case FieldCommonName:
		in.CommonName = nullableTrim(raw)

	case FieldDescription:
		in.Description = nullableTrim(raw)

	case FieldImage:
		v := nullableTrim(raw)
		if v != nil {
			if err := s.v.Var(*v, "url"); err != nil {
				return &FieldError{Field: f, Message: msgInvalidURL}
			}
		}
		in.Image = v

	case FieldKingdom:
		if err := s.v.Var(raw, s.kingdomTag); err != nil {
			return &FieldError{Field: f, Message: msgInvalidKingdom}
		}
		in.Kingdom = Kingdom(raw)

	case FieldEndangered:
		v, ok := parseEndangered(raw)
		if !ok {
			return &FieldError{Field: f, Message: msgInvalidSelect}
		}
		in.Endangered = v

	case FieldTotalPopulation:
		t := strings.TrimSpace(raw)
		if t == "" {
			in.TotalPopulation = nil
			return nil
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return &FieldError{Field: f, Message: msgExpectedInteger}
		}
		if err := s.v.Var(n, "min=1"); err != nil {
			return &FieldError{Field: f, Message: msgPositive}
		}
		in.TotalPopulation = &n

	default:
		return &FieldError{Field: f, Message: "unknown field"}
	}
	return nil
}

// Normalize aplica todas las reglas. Campos ausentes en values cuentan como "".
// Devuelve FieldErrors nil si todo es válido.
func (s *Schema) Normalize(values map[Field]string) (Fields, FieldErrors) {
	var out Fields
	var errs FieldErrors

	for _, f := range EditableFields() {
		if err := s.Apply(&out, f, values[f]); err != nil {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs[f] = fieldMessage(err)
		}
	}
	return out, errs
}

// Check verifica que in ya esté normalizado (lo usa el service antes de persistir).
func (s *Schema) Check(in Fields) error {
	errs := FieldErrors{}

	err := s.v.Struct(checked{
		ScientificName:  in.ScientificName,
		Kingdom:         string(in.Kingdom),
		TotalPopulation: in.TotalPopulation,
		Image:           in.Image,
	})
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			errs[Field(fe.Field())] = checkMessage(Field(fe.Field()))
		}
	case err != nil:
		return err
	}

	if in.ScientificName != strings.TrimSpace(in.ScientificName) {
		errs[FieldScientificName] = "Must be trimmed"
	}
	for f, p := range map[Field]*string{
		FieldCommonName:  in.CommonName,
		FieldImage:       in.Image,
		FieldDescription: in.Description,
	} {
		if p != nil && strings.TrimSpace(*p) == "" {
			errs[f] = msgBlank
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FormValues convierte un registro en los valores crudos que muestra el formulario.
func FormValues(in Fields) map[Field]string {
	out := map[Field]string{
		FieldScientificName:  in.ScientificName,
		FieldCommonName:      deref(in.CommonName),
		FieldKingdom:         string(in.Kingdom),
		FieldEndangered:      "",
		FieldTotalPopulation: "",
		FieldImage:           deref(in.Image),
		FieldDescription:     deref(in.Description),
	}
	if in.Endangered != nil {
		out[FieldEndangered] = strconv.FormatBool(*in.Endangered)
	}
	if in.TotalPopulation != nil {
		out[FieldTotalPopulation] = strconv.FormatInt(*in.TotalPopulation, 10)
	}
	return out
}

// parseEndangered mapea la opción del select: T/true, F/false, D/"" (sin dato).
func parseEndangered(raw string) (*bool, bool) {
	switch strings.TrimSpace(raw) {
	case "", "D":
		return nil, true
	case "T", "true":
		v := true
		return &v, true
	case "F", "false":
		v := false
		return &v, true
	default:
		return nil, false
	}
}

func nullableTrim(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func fieldMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

func checkMessage(f Field) string {
	switch f {
	case FieldScientificName:
		return msgRequired
	case FieldKingdom:
		return msgInvalidKingdom
	case FieldTotalPopulation:
		return msgPositive
	case FieldImage:
		return msgInvalidURL
	default:
		return "invalid"
	}
}
