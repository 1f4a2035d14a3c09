package dialog

import "fmt"

// EditMode reemplaza el flag "isEditing"; todos los campos se renderizan según este valor.
type EditMode int

const (
	Viewing EditMode = iota
	Editing
)

func (m EditMode) String() string {
	switch m {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("EditMode(%d)", int(m))
	}
}

func (m EditMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ReadOnly indica si los inputs deben ir en solo lectura.
func (m EditMode) ReadOnly() bool {
	return m != Editing
}
