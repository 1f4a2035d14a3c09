package profiles

// Profile es una fila de la tabla profiles (id = id del usuario en auth).
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
