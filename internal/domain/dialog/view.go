package dialog

import (
	"strings"

	"species-catalog/internal/domain/species"
)

//go:generate templ generate -f view.templ

var fieldLabels = map[species.Field]string{
	species.FieldScientificName:  "Scientific Name",
	species.FieldCommonName:      "Common Name",
	species.FieldKingdom:         "Kingdom",
	species.FieldEndangered:      "Endangered?",
	species.FieldTotalPopulation: "Total population",
	species.FieldImage:           "Image URL",
	species.FieldDescription:     "Description",
}

func authorLabel(st State) string {
	if st.AuthorLoading {
		return "Loading..."
	}
	return strings.Join(st.Author, ", ")
}

func dialogAction(dialogID, action string) string {
	return "/dialogs/" + dialogID + "/" + action
}

func inputType(f species.Field) string {
	if f == species.FieldTotalPopulation {
		return "number"
	}
	return "text"
}

// endangeredOption mapea el valor del formulario a la opción del select.
func endangeredOption(v string) string {
	switch v {
	case "true", "T":
		return "T"
	case "false", "F":
		return "F"
	default:
		return "D"
	}
}
