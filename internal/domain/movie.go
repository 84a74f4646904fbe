package domain

// Movie описывает один фильм корпуса.
// Записи корпуса неизменяемы после загрузки и читаются только при поиске.
type Movie struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Overview string    `json:"overview"`
	Genres   []string  `json:"genres,omitempty"`
	Vector   []float32 `json:"vector,omitempty"`
}

func NewMovie(id, title, overview string, genres []string, vector []float32) *Movie {
	return &Movie{
		ID:       id,
		Title:    title,
		Overview: overview,
		Genres:   genres,
		Vector:   vector,
	}
}
